package energy

import (
	"fmt"
	"time"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

// FetchError reports a failed upstream request for one (source, date) pair.
// Status is zero when the request never produced a response.
type FetchError struct {
	Source Source
	Date   time.Time
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s for %s", e.Source, e.Date.Format(ReferenceLayout))
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps a transport failure with the fetch_error code.
func NewFetchError(source Source, date time.Time, status int, err error) error {
	return apperrors.Wrap(apperrors.CodeFetch, "upstream request failed", &FetchError{
		Source: source,
		Date:   date,
		Status: status,
		Err:    err,
	})
}

func schemaError(format string, args ...any) error {
	return apperrors.Wrap(apperrors.CodeSchema, fmt.Sprintf(format, args...), nil)
}
