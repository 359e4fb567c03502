package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

// Codes written to the "code" field of error responses. Upstream failures
// reuse the domain code unchanged.
const (
	codeInvalidRequest = "invalid_request"
	codeUnknownSource  = "unknown_source"
	codeExportFailed   = "export_failed"
	codeRateLimited    = "rate_limit_exceeded"
	codeTimeout        = "timeout"
	codeInternal       = "internal_error"
)

// HTTPError is an API failure with the status and code it is reported under.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError builds an HTTPError.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// asHTTPError returns err unchanged when it already carries a status and
// otherwise classifies it as a pipeline failure.
func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return fromDomainError(err)
}

// fromDomainError maps pipeline failures onto statuses. Bad input is 400,
// upstream fetch, parse and schema failures are 502 and a missed deadline
// is 504.
func fromDomainError(err error) *HTTPError {
	switch code := apperrors.CodeOf(err); code {
	case apperrors.CodeInvalidInput:
		return NewHTTPError(http.StatusBadRequest, codeInvalidRequest, errMessage(err), err)
	case apperrors.CodeFetch, apperrors.CodeParse, apperrors.CodeSchema:
		return NewHTTPError(http.StatusBadGateway, code, errMessage(err), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewHTTPError(http.StatusGatewayTimeout, codeTimeout, "upstream took too long", err)
	}
	return NewHTTPError(http.StatusInternalServerError, codeInternal, "something went wrong", err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
