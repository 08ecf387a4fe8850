// Package events publishes wizard progress for downstream consumers. Only
// field names leave the process; record values never do.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"registration-wizard/internal/wizard"
)

// Envelope is the published form of a wizard event
type Envelope struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"sessionId"`
	Type       wizard.EventType `json:"type"`
	Step       string           `json:"step"`
	PrevStep   string           `json:"prevStep"`
	Fields     []string         `json:"fields,omitempty"`
	Editing    bool             `json:"isEditing"`
	OccurredAt time.Time        `json:"occurredAt"`
}

type Message struct {
	Key     string
	Type    wizard.EventType
	Payload []byte
}

type Sink interface {
	Write(ctx context.Context, msg Message) error
}

type Publisher struct {
	sink    Sink
	logger  *zap.Logger
	now     func() time.Time
	timeout time.Duration
}

func NewPublisher(sink Sink, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{sink: sink, logger: logger, now: time.Now, timeout: 5 * time.Second}
}

// Observer binds the publisher to one session's store
func (p *Publisher) Observer(sessionID string) wizard.Observer {
	return wizard.ObserverFunc(func(e wizard.Event) {
		p.Publish(sessionID, e)
	})
}

// Publish never fails the caller; sink errors are logged
func (p *Publisher) Publish(sessionID string, e wizard.Event) {
	env := Envelope{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Type:       e.Type,
		Step:       e.Step.String(),
		PrevStep:   e.PrevStep.String(),
		Fields:     e.Fields,
		Editing:    e.Editing,
		OccurredAt: p.now().UTC(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("failed to encode wizard event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.sink.Write(ctx, Message{Key: sessionID, Type: e.Type, Payload: payload}); err != nil {
		p.logger.Warn("failed to publish wizard event",
			zap.String("session_id", sessionID),
			zap.String("type", string(e.Type)),
			zap.Error(err))
	}
}
