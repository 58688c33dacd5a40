// ABOUTME: Priority queue of scheduled voices
// ABOUTME: Orders pending playback by start frame on the output clock
package spatial

import "container/heap"

// voiceQueue is a min-heap of voices keyed by start frame
type voiceQueue struct {
	items []*voice
	seq   uint64
}

// Implement heap.Interface
func (q *voiceQueue) Len() int { return len(q.items) }

func (q *voiceQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.start != b.start {
		return a.start < b.start
	}
	return a.seq < b.seq
}

func (q *voiceQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *voiceQueue) Push(x any) {
	v := x.(*voice)
	q.seq++
	v.seq = q.seq
	q.items = append(q.items, v)
}

func (q *voiceQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items[n-1] = nil
	q.items = q.items[:n-1]
	return item
}

func (q *voiceQueue) peek() *voice {
	return q.items[0]
}

// popDue removes and returns every voice starting before frame
func (q *voiceQueue) popDue(frame int64) []*voice {
	var due []*voice
	for q.Len() > 0 && q.peek().start < frame {
		due = append(due, heap.Pop(q).(*voice))
	}
	return due
}
