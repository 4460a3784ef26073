package knowledge

import (
	"context"
	"strconv"

	"github.com/agencydesk/agencydesk/internal/conversation/domain"
	"github.com/google/uuid"
)

// NoopAnswer is what the noop capability says for every question.
const NoopAnswer = "I don't have any knowledge configured yet, so I can't answer that."

type noopCapability struct{}

// NewNoop is used in development when no knowledge endpoint is
// configured. Uploads index instantly and answers are canned.
func NewNoop() Capability {
	return noopCapability{}
}

func (noopCapability) Answer(context.Context, AnswerRequest) (string, error) {
	return NoopAnswer, nil
}

func (noopCapability) Summarize(_ context.Context, priorSummary string, msgs []domain.Message) (string, error) {
	if len(msgs) == 0 {
		return priorSummary, nil
	}
	return "Conversation of " + strconv.Itoa(len(msgs)) + " messages.", nil
}

func (noopCapability) CreateIndex(context.Context, string) (string, error) {
	return "noop-" + uuid.NewString(), nil
}

func (noopCapability) DeleteIndex(context.Context, string) error { return nil }

func (noopCapability) UploadDocument(context.Context, string, string, []byte) (string, error) {
	return uuid.NewString(), nil
}

func (noopCapability) IndexingStatus(context.Context, string, string) (string, error) {
	return IndexingCompleted, nil
}
