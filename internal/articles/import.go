package articles

import (
	"context" // Request contexts
	"io"      // Readers
	"time"    // Timestamps

	"srq_assessment/internal/domain" // Domain models

	"github.com/sirupsen/logrus" // Logging library
)

// Store upserts one article by title and reports whether it was new.
type Store interface {
	Upsert(ctx context.Context, a *domain.Article) (inserted bool, err error)
}

// Report summarizes one import run.
type Report struct {
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Skips    []Skip `json:"skips,omitempty"`
}

// Import parses r and upserts every valid row through store. The caller owns
// the transaction: any returned error means the run must be rolled back.
func Import(ctx context.Context, store Store, r io.Reader, today time.Time) (*Report, error) {
	rows, skips, err := ParseCSV(r, today)
	if err != nil {
		return nil, err
	}
	rep := &Report{Skipped: len(skips), Skips: skips}
	for _, s := range skips {
		logrus.WithFields(logrus.Fields{"line": s.Line, "reason": s.Reason}).Warn("Skipping article row")
	}
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inserted, err := store.Upsert(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		if inserted {
			rep.Inserted++
		} else {
			rep.Updated++
		}
	}
	return rep, nil
}
