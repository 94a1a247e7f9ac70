package feed

import (
	"time"

	"github.com/newswatch/youtube-newswatch-go/internal/model"
)

// FilterRecent keeps records whose publication is at most horizonDays
// before now. The boundary is inclusive: a record published exactly
// horizonDays ago survives. Pure function, order preserved.
func FilterRecent(records []model.VideoRecord, horizonDays int, now time.Time) []model.VideoRecord {
	horizon := time.Duration(horizonDays) * 24 * time.Hour

	kept := make([]model.VideoRecord, 0, len(records))
	for _, r := range records {
		if now.Sub(r.PublishedAt) <= horizon {
			kept = append(kept, r)
		}
	}
	return kept
}
