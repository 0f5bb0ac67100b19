// Package queue provides the bounded result heap used by search paths.
package queue

// Item is a scored candidate held by a TopK queue.
type Item struct {
	ID    uint64  // ID is the internal record id of the candidate.
	Score float32 // Score is the cosine similarity of the candidate.
}

// Beats reports whether a ranks ahead of b in final result order:
// higher score first, lower id on equal scores.
func Beats(a, b Item) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// TopK retains the k best items offered to it. The backing heap is
// ordered weakest-first so Consider evicts in O(log k).
// Value-based storage, no pointer indirection.
type TopK struct {
	k     int
	items []Item
}

// NewTopK initializes a queue that retains at most k items.
// k <= 0 retains nothing.
func NewTopK(k int) *TopK {
	if k < 0 {
		k = 0
	}
	return &TopK{
		k:     k,
		items: make([]Item, 0, k),
	}
}

// Len returns the number of retained items.
func (q *TopK) Len() int { return len(q.items) }

// Consider offers a candidate. It is retained if the queue is not yet
// full or it beats the current weakest item.
func (q *TopK) Consider(id uint64, score float32) {
	if q.k == 0 {
		return
	}

	it := Item{ID: id, Score: score}
	if len(q.items) < q.k {
		q.items = append(q.items, it)
		q.siftUp(len(q.items) - 1)
		return
	}

	if !Beats(it, q.items[0]) {
		return
	}

	q.items[0] = it
	q.siftDown(0)
}

// Results drains the queue and returns the retained items strongest
// first. The queue is empty afterwards.
func (q *TopK) Results() []Item {
	out := make([]Item, len(q.items))
	// Pop yields weakest first, so fill back-to-front.
	for i := len(q.items) - 1; i >= 0; i-- {
		out[i], _ = q.pop()
	}
	return out
}

// less orders the heap weakest-first: i sorts before j when j beats i.
func (q *TopK) less(i, j int) bool {
	return Beats(q.items[j], q.items[i])
}

func (q *TopK) pop() (Item, bool) {
	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}

	root := q.items[0]
	last := q.items[n-1]
	q.items[n-1] = Item{}
	q.items = q.items[:n-1]
	if n-1 > 0 {
		q.items[0] = last
		q.siftDown(0)
	}

	return root, true
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
