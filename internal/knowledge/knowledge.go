package knowledge

import (
	"context"
	"errors"

	"github.com/agencydesk/agencydesk/internal/conversation/domain"
)

// FallbackAnswer is returned verbatim when the capability fails. UIs
// assert on the exact text.
const FallbackAnswer = "I'm sorry, I can't answer that right now. Please try again in a moment."

// Indexing states reported by the knowledge service for an uploaded
// document.
const (
	IndexingPending   = "pending"
	IndexingCompleted = "completed"
	IndexingFailed    = "failed"
)

var (
	ErrUnavailable    = errors.New("knowledge_unavailable")
	ErrIndexingFailed = errors.New("indexing_failed")
)

// AnswerRequest carries everything the answer capability needs for one
// turn. IndexHandle is empty when the bot has no grounding index, in
// which case the capability answers without retrieval.
type AnswerRequest struct {
	Instructions string
	Summary      string
	Messages     []domain.Message
	IndexHandle  string
}

// Capability is the external knowledge-index service. All calls may
// fail; callers decide whether a failure is fatal.
type Capability interface {
	Answer(ctx context.Context, req AnswerRequest) (string, error)
	Summarize(ctx context.Context, priorSummary string, msgs []domain.Message) (string, error)
	CreateIndex(ctx context.Context, name string) (string, error)
	DeleteIndex(ctx context.Context, handle string) error
	UploadDocument(ctx context.Context, handle, filename string, content []byte) (string, error)
	IndexingStatus(ctx context.Context, handle, documentRef string) (string, error)
}
