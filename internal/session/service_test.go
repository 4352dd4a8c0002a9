package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndHistory(t *testing.T) {
	svc := NewService(10)

	svc.Record("whatsapp:+111", "How do I route tickets?", "Use routing rules.", "service_cloud")
	svc.Record("whatsapp:+111", "And escalations?", "Configure escalation paths.", "service_cloud")

	history := svc.History("whatsapp:+111", 5)
	require.Len(t, history, 2)
	assert.Equal(t, "How do I route tickets?", history[0].Query)
	assert.Equal(t, "And escalations?", history[1].Query)
	assert.Equal(t, "service_cloud", history[1].Domain)
	assert.False(t, history[0].At.IsZero())
}

func TestHistoryLimit(t *testing.T) {
	svc := NewService(10)
	for i := 0; i < 5; i++ {
		svc.Record("u", fmt.Sprintf("q%d", i), "a", "fsm")
	}

	history := svc.History("u", 2)
	require.Len(t, history, 2)
	assert.Equal(t, "q3", history[0].Query)
	assert.Equal(t, "q4", history[1].Query)
}

func TestTrimToMaxTurns(t *testing.T) {
	svc := NewService(3)
	for i := 0; i < 7; i++ {
		svc.Record("u", fmt.Sprintf("q%d", i), "a", "cpi")
	}

	history := svc.History("u", 10)
	require.Len(t, history, 3)
	assert.Equal(t, "q4", history[0].Query)
	assert.Equal(t, "q6", history[2].Query)
}

func TestPerUserIsolation(t *testing.T) {
	svc := NewService(10)
	svc.Record("alice", "q-alice", "a", "cpq")
	svc.Record("bob", "q-bob", "a", "fsm")

	require.Len(t, svc.History("alice", 10), 1)
	assert.Equal(t, "q-alice", svc.History("alice", 10)[0].Query)
	assert.Equal(t, "q-bob", svc.History("bob", 10)[0].Query)
	assert.Equal(t, 2, svc.Users())
}

func TestClear(t *testing.T) {
	svc := NewService(10)
	svc.Record("u", "q", "a", "fsm")
	svc.Clear("u")

	assert.Empty(t, svc.History("u", 10))
	assert.Equal(t, 0, svc.Users())
}

func TestEmptyUserIgnored(t *testing.T) {
	svc := NewService(10)
	svc.Record("", "q", "a", "fsm")
	assert.Equal(t, 0, svc.Users())
}

func TestUnknownUserHistory(t *testing.T) {
	svc := NewService(10)
	assert.Nil(t, svc.History("nobody", 10))
}
