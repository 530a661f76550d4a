package transfer

import (
	"sync"
	"time"
)

// DefaultHistoryCapacity bounds the in-memory transfer history.
const DefaultHistoryCapacity = 5

// Record is one successfully submitted transfer. The history is client-local
// state only; it is never persisted.
type Record struct {
	Signature string    `json:"signature"`
	Asset     Asset     `json:"asset"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a bounded, most-recent-first list of transfer records.
type History struct {
	mu      sync.Mutex
	cap     int
	records []Record
}

// NewHistory creates a history bounded to the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{cap: capacity}
}

// Append adds a record at the front, evicting the oldest entry when the
// history is full.
func (h *History) Append(record Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append([]Record{record}, h.records...)
	if len(h.records) > h.cap {
		h.records = h.records[:h.cap]
	}
}

// Records returns a copy of the history, newest first.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}
