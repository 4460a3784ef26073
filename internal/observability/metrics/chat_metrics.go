package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics captures assistant health signals: answered turns,
// degraded fallbacks, quota denials and summarization churn.
type ChatMetrics struct {
	messagesAnswered *prometheus.CounterVec
	fallbackAnswers  prometheus.Counter
	quotaDenials     *prometheus.CounterVec
	summarizations   prometheus.Counter
	uploadsIndexed   prometheus.Counter
}

var (
	chatMetricsOnce sync.Once
	chatMetrics     *ChatMetrics
)

// Chat returns the singleton chat metrics registry.
func Chat() *ChatMetrics {
	chatMetricsOnce.Do(func() {
		chatMetrics = newChatMetrics(prometheus.DefaultRegisterer)
	})
	return chatMetrics
}

// ResetChatMetricsForTest resets the chat metrics singleton for tests.
func ResetChatMetricsForTest() {
	chatMetricsOnce = sync.Once{}
	chatMetrics = nil
}

func newChatMetrics(registerer prometheus.Registerer) *ChatMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	messagesAnswered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agencydesk_chat_messages_answered_total",
		Help: "Assistant turns answered, by plan tier.",
	}, []string{"plan"})
	fallbackAnswers := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agencydesk_chat_fallback_answers_total",
		Help: "Turns answered with the degraded fallback text.",
	})
	quotaDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agencydesk_quota_denials_total",
		Help: "Requests denied by the daily quota ledger, by kind.",
	}, []string{"kind"})
	summarizations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agencydesk_conversation_summarizations_total",
		Help: "Completed conversation compaction passes.",
	})
	uploadsIndexed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agencydesk_documents_indexed_total",
		Help: "Documents that finished indexing and were recorded.",
	})

	registerer.MustRegister(
		messagesAnswered,
		fallbackAnswers,
		quotaDenials,
		summarizations,
		uploadsIndexed,
	)

	return &ChatMetrics{
		messagesAnswered: messagesAnswered,
		fallbackAnswers:  fallbackAnswers,
		quotaDenials:     quotaDenials,
		summarizations:   summarizations,
		uploadsIndexed:   uploadsIndexed,
	}
}

// IncMessageAnswered increments the answered-turn counter for a plan.
func (m *ChatMetrics) IncMessageAnswered(plan string) {
	if m == nil || m.messagesAnswered == nil {
		return
	}
	m.messagesAnswered.WithLabelValues(plan).Inc()
}

// IncFallbackAnswer increments the degraded-answer counter.
func (m *ChatMetrics) IncFallbackAnswer() {
	if m == nil || m.fallbackAnswers == nil {
		return
	}
	m.fallbackAnswers.Inc()
}

// IncQuotaDenial increments the quota denial counter for a kind
// ("messages" or "uploads").
func (m *ChatMetrics) IncQuotaDenial(kind string) {
	if m == nil || m.quotaDenials == nil {
		return
	}
	m.quotaDenials.WithLabelValues(kind).Inc()
}

// IncSummarization increments the completed compaction counter.
func (m *ChatMetrics) IncSummarization() {
	if m == nil || m.summarizations == nil {
		return
	}
	m.summarizations.Inc()
}

// IncUploadIndexed increments the indexed document counter.
func (m *ChatMetrics) IncUploadIndexed() {
	if m == nil || m.uploadsIndexed == nil {
		return
	}
	m.uploadsIndexed.Inc()
}
