package sim

import "container/heap"

// eventQueue orders events by (Time, Seq). Seq is the global insertion
// counter, so simultaneous events dispatch in the order they were emitted.
type eventQueue struct {
	items eventHeap
}

func (q *eventQueue) Len() int { return len(q.items) }

func (q *eventQueue) push(ev *Event) {
	heap.Push(&q.items, ev)
}

func (q *eventQueue) pop() *Event {
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(&q.items).(*Event)
}

func (q *eventQueue) peek() *Event {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].Seq < h[j].Seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
