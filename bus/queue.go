package bus

import (
	"container/heap"

	"github.com/discoverymesh/discoverymesh/core"
)

// queued pairs a message with an arrival sequence number so equal
// priorities drain FIFO.
type queued struct {
	msg core.Message
	seq uint64
}

// priorityQueue is a max-heap on priority, min on sequence within a
// priority class. Not goroutine-safe; the owning subscription locks.
type priorityQueue struct {
	items []queued
	seq   uint64
}

func (q *priorityQueue) Len() int { return len(q.items) }

func (q *priorityQueue) Less(i, j int) bool {
	if q.items[i].msg.Priority != q.items[j].msg.Priority {
		return q.items[i].msg.Priority > q.items[j].msg.Priority
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *priorityQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *priorityQueue) Push(x any) { q.items = append(q.items, x.(queued)) }

func (q *priorityQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

// add enqueues a message, stamping the next sequence number.
func (q *priorityQueue) add(msg core.Message) {
	q.seq++
	heap.Push(q, queued{msg: msg, seq: q.seq})
}

// next dequeues the highest-priority, oldest message.
func (q *priorityQueue) next() (core.Message, bool) {
	if q.Len() == 0 {
		return core.Message{}, false
	}
	item := heap.Pop(q).(queued)
	return item.msg, true
}
