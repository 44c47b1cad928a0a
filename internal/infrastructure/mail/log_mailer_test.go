package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogMailer_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	err := m.Send(context.Background(), Message{
		To:      "ann@example.com",
		Subject: "Confirm your email",
		Body:    "http://localhost:8080/confirm/abc",
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("Email").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ann@example.com", entries[0].ContextMap()["to"])

	last, ok := m.Last("ann@example.com")
	require.True(t, ok)
	assert.Contains(t, last.Body, "/confirm/abc")

	_, ok = m.Last("bob@example.com")
	assert.False(t, ok)
}
