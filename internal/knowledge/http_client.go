package knowledge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/conversation/domain"
	"go.uber.org/zap"
)

type httpCapability struct {
	endpoint string
	token    string
	client   *http.Client
	log      *zap.Logger
}

// NewHTTPClient talks to the knowledge service over its JSON API.
func NewHTTPClient(endpoint, token string, log *zap.Logger) Capability {
	return &httpCapability{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		token:    strings.TrimSpace(token),
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.Named("knowledge.client"),
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toWire(msgs []domain.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, wireMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

type answerRequest struct {
	Instructions string        `json:"instructions"`
	Summary      string        `json:"summary,omitempty"`
	Messages     []wireMessage `json:"messages"`
	IndexHandle  string        `json:"index_handle,omitempty"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

func (c *httpCapability) Answer(ctx context.Context, req AnswerRequest) (string, error) {
	var resp answerResponse
	err := c.post(ctx, "/v1/answer", answerRequest{
		Instructions: req.Instructions,
		Summary:      req.Summary,
		Messages:     toWire(req.Messages),
		IndexHandle:  req.IndexHandle,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

type summarizeRequest struct {
	PriorSummary string        `json:"prior_summary,omitempty"`
	Messages     []wireMessage `json:"messages"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func (c *httpCapability) Summarize(ctx context.Context, priorSummary string, msgs []domain.Message) (string, error) {
	var resp summarizeResponse
	err := c.post(ctx, "/v1/summarize", summarizeRequest{
		PriorSummary: priorSummary,
		Messages:     toWire(msgs),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Summary, nil
}

type createIndexRequest struct {
	Name string `json:"name"`
}

type createIndexResponse struct {
	Handle string `json:"handle"`
}

func (c *httpCapability) CreateIndex(ctx context.Context, name string) (string, error) {
	var resp createIndexResponse
	if err := c.post(ctx, "/v1/indexes", createIndexRequest{Name: name}, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

func (c *httpCapability) DeleteIndex(ctx context.Context, handle string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint+"/v1/indexes/"+handle, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

type uploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type uploadResponse struct {
	DocumentRef string `json:"document_ref"`
}

func (c *httpCapability) UploadDocument(ctx context.Context, handle, filename string, content []byte) (string, error) {
	var resp uploadResponse
	err := c.post(ctx, "/v1/indexes/"+handle+"/documents", uploadRequest{
		Filename: filename,
		Content:  base64.StdEncoding.EncodeToString(content),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.DocumentRef, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

func (c *httpCapability) IndexingStatus(ctx context.Context, handle, documentRef string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint+"/v1/indexes/"+handle+"/documents/"+documentRef, nil)
	if err != nil {
		return "", err
	}
	var resp statusResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *httpCapability) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *httpCapability) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("knowledge request failed", zap.String("path", req.URL.Path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Warn("knowledge request rejected",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
