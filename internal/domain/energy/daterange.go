package energy

import (
	"strings"
	"time"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

// ReferenceLayout is the canonical YYYY/MM/DD form of a reference date.
const ReferenceLayout = "2006/01/02"

// Resolve turns a lookback request into the dates to fetch.
//
// With lookback <= 0 the result is the single reference date. Otherwise it is
// every civil date in [now - lookback days, now + 1 day), which is lookback
// past days plus today. The calendar is taken from now's location.
func Resolve(reference string, lookback int, now time.Time) (DateRange, error) {
	loc := now.Location()
	if lookback <= 0 {
		day, err := time.ParseInLocation(ReferenceLayout, strings.TrimSpace(reference), loc)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeParse, "reference date must be formatted as YYYY/MM/DD", err)
		}
		return DateRange{day}, nil
	}

	start := now.AddDate(0, 0, -lookback)
	end := now.AddDate(0, 0, 1)
	dates := make(DateRange, 0, lookback+1)
	for ts := start; ts.Before(end); ts = ts.AddDate(0, 0, 1) {
		dates = append(dates, civilDate(ts))
	}
	return dates, nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
