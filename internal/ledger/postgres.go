package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newswatch/youtube-newswatch-go/internal/model"
)

// PostgresLedger stores processed videos in a single table keyed by
// video_id, partitioned logically by published_date. The primary key plus
// ON CONFLICT DO NOTHING give the exclusive-access guarantee the file
// backend lacks, so overlapping invocations are safe against this backend.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a Postgres-backed ledger on an existing pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

func (l *PostgresLedger) HasProcessed(ctx context.Context, videoID string, publishedAt time.Time) (bool, error) {
	date := DateKey(publishedAt)
	query := `
		SELECT EXISTS(
			SELECT 1 FROM processed_videos
			WHERE video_id = $1 AND published_date = $2
		)
	`

	var exists bool
	if err := l.pool.QueryRow(ctx, query, videoID, date).Scan(&exists); err != nil {
		return false, &Error{Partition: date, Reason: ReasonUnreadablePartition, Err: fmt.Errorf("%w: %v", ErrUnreadablePartition, err)}
	}
	return exists, nil
}

func (l *PostgresLedger) MarkProcessed(ctx context.Context, record model.VideoRecord) error {
	date := record.PublishedDate()
	query := `
		INSERT INTO processed_videos (video_id, published_date, channel_id, title, url, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (video_id) DO NOTHING
	`

	_, err := l.pool.Exec(ctx, query,
		record.VideoID,
		date,
		record.ChannelID,
		record.Title,
		record.URL,
		time.Now(),
	)
	if err != nil {
		return &Error{Partition: date, Reason: ReasonWriteFailure, Err: fmt.Errorf("%w: %v", ErrWriteFailure, err)}
	}
	return nil
}

func (l *PostgresLedger) Status(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT published_date, COUNT(*)
		FROM processed_videos
		GROUP BY published_date
	`

	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, &Error{Partition: "all", Reason: ReasonUnreadablePartition, Err: fmt.Errorf("%w: %v", ErrUnreadablePartition, err)}
	}
	defer rows.Close()

	status := make(map[string]int)
	for rows.Next() {
		var date time.Time
		var count int
		if err := rows.Scan(&date, &count); err != nil {
			return nil, &Error{Partition: "all", Reason: ReasonUnreadablePartition, Err: fmt.Errorf("%w: %v", ErrUnreadablePartition, err)}
		}
		status[date.Format(model.DateLayout)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Partition: "all", Reason: ReasonUnreadablePartition, Err: fmt.Errorf("%w: %v", ErrUnreadablePartition, err)}
	}
	return status, nil
}

// Ping checks connectivity for readiness probes.
func (l *PostgresLedger) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}
