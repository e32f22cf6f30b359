package bus

import (
	"testing"

	"github.com/discoverymesh/discoverymesh/core"
	"github.com/stretchr/testify/assert"
)

func TestPriorityQueueOrdering(t *testing.T) {
	var q priorityQueue
	q.add(core.Message{ID: "low", Priority: core.PriorityLow})
	q.add(core.Message{ID: "critical", Priority: core.PriorityCritical})
	q.add(core.Message{ID: "normal", Priority: core.PriorityNormal})
	q.add(core.Message{ID: "high", Priority: core.PriorityHigh})

	var ids []string
	for {
		msg, ok := q.next()
		if !ok {
			break
		}
		ids = append(ids, msg.ID)
	}
	assert.Equal(t, []string{"critical", "high", "normal", "low"}, ids)
}

func TestPriorityQueueFIFOWithinClass(t *testing.T) {
	var q priorityQueue
	for _, id := range []string{"first", "second", "third"} {
		q.add(core.Message{ID: id, Priority: core.PriorityNormal})
	}

	var ids []string
	for {
		msg, ok := q.next()
		if !ok {
			break
		}
		ids = append(ids, msg.ID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestPriorityQueueEmpty(t *testing.T) {
	var q priorityQueue
	_, ok := q.next()
	assert.False(t, ok)
}
