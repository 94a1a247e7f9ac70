package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/newswatch/youtube-newswatch-go/internal/model"
)

// MemoryLedger is a non-durable Ledger used by tests and dry runs.
type MemoryLedger struct {
	mu         sync.RWMutex
	partitions map[string]map[string]struct{}
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{partitions: make(map[string]map[string]struct{})}
}

func (l *MemoryLedger) HasProcessed(_ context.Context, videoID string, publishedAt time.Time) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids, ok := l.partitions[DateKey(publishedAt)]
	if !ok {
		return false, nil
	}
	_, found := ids[videoID]
	return found, nil
}

func (l *MemoryLedger) MarkProcessed(_ context.Context, record model.VideoRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	date := record.PublishedDate()
	if l.partitions[date] == nil {
		l.partitions[date] = make(map[string]struct{})
	}
	l.partitions[date][record.VideoID] = struct{}{}
	return nil
}

func (l *MemoryLedger) Status(_ context.Context) (map[string]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	status := make(map[string]int, len(l.partitions))
	for date, ids := range l.partitions {
		status[date] = len(ids)
	}
	return status, nil
}
