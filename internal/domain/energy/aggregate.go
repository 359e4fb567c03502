package energy

import (
	"context"
	"time"
)

// DayFetcher retrieves one day of one feed as long-form records.
type DayFetcher interface {
	FetchDay(ctx context.Context, source Source, date time.Time) (LongTable, error)
}

// Progress is told after each completed day of a range.
type Progress func(source Source, done, total int)

// Aggregate fetches every date of the range one after another and
// concatenates the fragments in date order. The first failure aborts the
// whole range and no partial table is returned.
func Aggregate(ctx context.Context, fetcher DayFetcher, source Source, dates DateRange, progress Progress) (LongTable, error) {
	var out LongTable
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fragment, err := fetcher.FetchDay(ctx, source, date)
		if err != nil {
			return nil, err
		}
		out = append(out, fragment...)
		if progress != nil {
			progress(source, i+1, len(dates))
		}
	}
	return out, nil
}
