// Package mail delivers account emails. The shop has no outgoing mail
// transport, so messages are written to the log.
package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
)

// Message is a plain-text email
type Message struct {
	To      string
	Subject string
	Body    string
}

// LogMailer logs every message instead of sending it. It also keeps the
// last message per recipient, which tests and the CLI read back.
type LogMailer struct {
	log *zap.Logger

	mu   sync.Mutex
	last map[string]Message
}

// NewLogMailer creates a mailer writing to log
func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log.Named("mail"), last: make(map[string]Message)}
}

// Send logs msg
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	logger.For(ctx, m.log).Info("Email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	m.mu.Lock()
	m.last[msg.To] = msg
	m.mu.Unlock()
	return nil
}

// Last returns the most recent message sent to addr
func (m *LogMailer) Last(addr string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.last[addr]
	return msg, ok
}
