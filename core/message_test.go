package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "REQUEST", MessageTypeRequest.String())
	assert.Equal(t, "RESPONSE", MessageTypeResponse.String())
	assert.Equal(t, "EVENT", MessageTypeEvent.String())
	assert.Equal(t, "BROADCAST", MessageTypeBroadcast.String())
}

func TestPriorityOrdering(t *testing.T) {
	assert.True(t, PriorityCritical > PriorityHigh)
	assert.True(t, PriorityHigh > PriorityNormal)
	assert.True(t, PriorityNormal > PriorityLow)
}

func TestMessageExpired(t *testing.T) {
	now := time.Now()

	m := Message{Deadline: now.Add(-time.Second)}
	assert.True(t, m.Expired(now))

	m.Deadline = now.Add(time.Second)
	assert.False(t, m.Expired(now))

	m.Deadline = time.Time{}
	assert.False(t, m.Expired(now), "zero deadline never expires")
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
