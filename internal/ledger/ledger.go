// Package ledger persists which video identifiers have already been
// processed, partitioned by the video's publication date.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newswatch/youtube-newswatch-go/internal/model"
)

// Ledger failure reasons.
const (
	ReasonUnreadablePartition = "unreadable_partition"
	ReasonWriteFailure        = "write_failure"
)

var (
	// ErrUnreadablePartition is returned when an existing partition cannot
	// be read. Callers must treat this as fatal rather than assuming the
	// partition is empty.
	ErrUnreadablePartition = errors.New("ledger partition unreadable")

	// ErrWriteFailure is returned when a partition cannot be persisted.
	ErrWriteFailure = errors.New("ledger write failed")
)

// Error reports a failed ledger operation on one date partition.
type Error struct {
	Partition string
	Reason    string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger partition %s: %s: %v", e.Partition, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnreadable returns true if the error is an unreadable-partition error.
func IsUnreadable(err error) bool {
	return errors.Is(err, ErrUnreadablePartition)
}

// Ledger is the date-partitioned record of processed video identifiers.
// A video id appears in at most one partition: the one matching its own
// publication date. Partitions are created lazily and never deleted by
// the system; retention is an operational concern.
type Ledger interface {
	// HasProcessed reports whether videoID is recorded in the partition
	// for publishedAt's date. A missing partition reads as empty.
	HasProcessed(ctx context.Context, videoID string, publishedAt time.Time) (bool, error)

	// MarkProcessed durably records the video in the partition for its
	// publication date. Idempotent: marking a video twice is a no-op.
	// Called only after downstream synthesis succeeded for the video.
	MarkProcessed(ctx context.Context, record model.VideoRecord) error

	// Status enumerates all existing partitions and reports how many ids
	// each holds, keyed by date string.
	Status(ctx context.Context) (map[string]int, error)
}

// DateKey formats a timestamp as a partition key.
func DateKey(t time.Time) string {
	return t.Format(model.DateLayout)
}
