package dlq

import (
	"context"
	"fmt"
	"sync"
)

const defaultMaxEntries = 10000

// MemoryQueue keeps entries in process and hands each new entry to the subscribers
type MemoryQueue struct {
	mu          sync.RWMutex
	entries     []Entry
	subscribers []Handler
	running     bool
	maxEntries  int
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		running:    true,
		maxEntries: defaultMaxEntries,
	}
}

func (q *MemoryQueue) Publish(ctx context.Context, entry Entry) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return fmt.Errorf("DLQ is closed")
	}

	if len(q.entries) >= q.maxEntries {
		q.entries = q.entries[q.maxEntries/10:]
	}
	q.entries = append(q.entries, entry)
	subscribers := make([]Handler, len(q.subscribers))
	copy(subscribers, q.subscribers)
	q.mu.Unlock()

	var errs []error
	for _, h := range subscribers {
		if err := h(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("DLQ subscribers failed for %s: %v", entry.ID, errs)
	}
	return nil
}

// Subscribe registers handler for entries published from now on
func (q *MemoryQueue) Subscribe(ctx context.Context, groupID string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.subscribers = append(q.subscribers, handler)
	return nil
}

func (q *MemoryQueue) Entries() []Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	entries := make([]Entry, len(q.entries))
	copy(entries, q.entries)
	return entries
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.running = false
	return nil
}
