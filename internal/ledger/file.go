package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/newswatch/youtube-newswatch-go/internal/model"
)

// partitionFileName is the per-date file holding processed video ids.
const partitionFileName = "videos_processed.json"

// partitionData is the on-disk document for one date partition.
type partitionData struct {
	VideoIDs []string         `json:"video_ids"`
	Videos   []processedVideo `json:"videos"`
}

// processedVideo keeps enough detail per processed video for reporting.
type processedVideo struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	ChannelID   string    `json:"channel_id"`
	Published   string    `json:"published"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (p *partitionData) contains(videoID string) bool {
	for _, id := range p.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// FileLedger stores one directory per publication date under a base
// directory, each holding a videos_processed.json document. Each partition
// is read-modify-written as a whole; writes go through a temp file and
// rename so a crash never leaves a truncated partition.
//
// The file backend gives no exclusive-access guarantee across processes:
// the operational contract is that invocations do not overlap. The
// Postgres backend covers the concurrent case.
type FileLedger struct {
	dir string
	now func() time.Time
}

// NewFileLedger creates a file-backed ledger rooted at dir. The directory
// is created on first write, not here.
func NewFileLedger(dir string) *FileLedger {
	return &FileLedger{dir: dir, now: time.Now}
}

func (l *FileLedger) partitionDir(date string) string {
	return filepath.Join(l.dir, date)
}

func (l *FileLedger) partitionPath(date string) string {
	return filepath.Join(l.dir, date, partitionFileName)
}

// loadPartition reads the partition for a date. A missing partition is
// returned empty. A partition that exists but cannot be read or parsed is
// a hard error: silently treating it as empty would reprocess everything
// recorded in it.
func (l *FileLedger) loadPartition(date string) (*partitionData, error) {
	raw, err := os.ReadFile(l.partitionPath(date))
	if os.IsNotExist(err) {
		return &partitionData{}, nil
	}
	if err != nil {
		return nil, &Error{Partition: date, Reason: ReasonUnreadablePartition, Err: fmt.Errorf("%w: %v", ErrUnreadablePartition, err)}
	}

	var p partitionData
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &Error{Partition: date, Reason: ReasonUnreadablePartition, Err: fmt.Errorf("%w: %v", ErrUnreadablePartition, err)}
	}
	return &p, nil
}

// savePartition persists the partition durably: written to a temp file in
// the partition directory, fsynced, then renamed over the real path.
func (l *FileLedger) savePartition(date string, p *partitionData) error {
	dir := l.partitionDir(date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Partition: date, Reason: ReasonWriteFailure, Err: fmt.Errorf("%w: %v", ErrWriteFailure, err)}
	}

	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return &Error{Partition: date, Reason: ReasonWriteFailure, Err: fmt.Errorf("%w: %v", ErrWriteFailure, err)}
	}

	tmp, err := os.CreateTemp(dir, partitionFileName+".tmp-*")
	if err != nil {
		return &Error{Partition: date, Reason: ReasonWriteFailure, Err: fmt.Errorf("%w: %v", ErrWriteFailure, err)}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &Error{Partition: date, Reason: ReasonWriteFailure, Err: fmt.Errorf("%w: %v", ErrWriteFailure, err)}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &Error{Partition: date, Reason: ReasonWriteFailure, Err: fmt.Errorf("%w: %v", ErrWriteFailure, err)}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &Error{Partition: date, Reason: ReasonWriteFailure, Err: fmt.Errorf("%w: %v", ErrWriteFailure, err)}
	}

	if err := os.Rename(tmpName, l.partitionPath(date)); err != nil {
		os.Remove(tmpName)
		return &Error{Partition: date, Reason: ReasonWriteFailure, Err: fmt.Errorf("%w: %v", ErrWriteFailure, err)}
	}
	return nil
}

// HasProcessed reports whether videoID is in the partition for
// publishedAt's date.
func (l *FileLedger) HasProcessed(_ context.Context, videoID string, publishedAt time.Time) (bool, error) {
	p, err := l.loadPartition(DateKey(publishedAt))
	if err != nil {
		return false, err
	}
	return p.contains(videoID), nil
}

// MarkProcessed adds the record to its publication-date partition and
// persists the partition before returning. Marking the same video twice
// leaves the partition unchanged.
func (l *FileLedger) MarkProcessed(_ context.Context, record model.VideoRecord) error {
	date := record.PublishedDate()

	p, err := l.loadPartition(date)
	if err != nil {
		return err
	}
	if p.contains(record.VideoID) {
		return nil
	}

	p.VideoIDs = append(p.VideoIDs, record.VideoID)
	p.Videos = append(p.Videos, processedVideo{
		VideoID:     record.VideoID,
		Title:       record.Title,
		URL:         record.URL,
		ChannelID:   record.ChannelID,
		Published:   record.PublishedAt.Format(time.RFC3339),
		ProcessedAt: l.now(),
	})

	return l.savePartition(date, p)
}

// Status walks the base directory and reports per-date processed counts.
// A base directory that does not exist yet yields an empty map.
func (l *FileLedger) Status(_ context.Context) (map[string]int, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, &Error{Partition: l.dir, Reason: ReasonUnreadablePartition, Err: fmt.Errorf("%w: %v", ErrUnreadablePartition, err)}
	}

	status := make(map[string]int, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := time.Parse(model.DateLayout, entry.Name()); err != nil {
			continue
		}
		p, err := l.loadPartition(entry.Name())
		if err != nil {
			return nil, err
		}
		status[entry.Name()] = len(p.VideoIDs)
	}
	return status, nil
}
