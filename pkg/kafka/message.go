package kafka

import (
	"time"

	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/router"
	"github.com/goccy/go-json"
)

// OutcomeEvent is published once per document for each outcome the publisher is hooked to.
type OutcomeEvent struct {
	RunID     string              `json:"run_id"`
	Source    string              `json:"source"`
	Row       int                 `json:"row"`
	Outcome   string              `json:"outcome"`
	Stage     string              `json:"stage"`
	Timestamp time.Time           `json:"timestamp"`
	Document  *models.Document    `json:"document"`
	Errors    map[string][]string `json:"errors,omitempty"`

	// Tracing
	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`
}

// NewOutcomeEvent captures the processor state of a routed document.
func NewOutcomeEvent(event router.Event) *OutcomeEvent {
	msg := &OutcomeEvent{
		RunID:     event.RunID,
		Source:    event.Source,
		Row:       event.Row,
		Outcome:   event.Outcome.String(),
		Stage:     event.Stage.String(),
		Timestamp: event.Time,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if event.Processor != nil {
		msg.Document = event.Processor.Document()
		if errs := event.Processor.Errors(); len(errs) > 0 {
			msg.Errors = errs.ByField()
		}
	}
	return msg
}

// ToJSON serializes the event; document fields keep their order
func (m *OutcomeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Key partitions events by run so one run's events stay ordered
func (m *OutcomeEvent) Key() string {
	return m.RunID
}

// MessageHeaders contains Kafka message headers for filtering without decoding the body
type MessageHeaders struct {
	RunID       string
	Outcome     string
	Source      string
	TraceParent string
}

// ToKafkaHeaders converts MessageHeaders to a slice of header key-value pairs
func (h *MessageHeaders) ToKafkaHeaders() []Header {
	headers := make([]Header, 0, 4)

	if h.RunID != "" {
		headers = append(headers, Header{Key: "run_id", Value: []byte(h.RunID)})
	}
	if h.Outcome != "" {
		headers = append(headers, Header{Key: "outcome", Value: []byte(h.Outcome)})
	}
	if h.Source != "" {
		headers = append(headers, Header{Key: "source", Value: []byte(h.Source)})
	}
	if h.TraceParent != "" {
		headers = append(headers, Header{Key: "traceparent", Value: []byte(h.TraceParent)})
	}

	return headers
}

// Header represents a Kafka message header
type Header struct {
	Key   string
	Value []byte
}

// ExtractHeaders extracts MessageHeaders from Kafka headers
func ExtractHeaders(headers []Header) MessageHeaders {
	var mh MessageHeaders
	for _, h := range headers {
		switch h.Key {
		case "run_id":
			mh.RunID = string(h.Value)
		case "outcome":
			mh.Outcome = string(h.Value)
		case "source":
			mh.Source = string(h.Value)
		case "traceparent":
			mh.TraceParent = string(h.Value)
		}
	}
	return mh
}
