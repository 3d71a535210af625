package shared

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// UpstreamError represents a failed outbound call: either a non-200 response
// (StatusCode set) or a transport failure (StatusCode zero, Cause set).
// Handlers echo a non-zero StatusCode verbatim as the outbound status;
// everything else becomes a generic server error envelope.
type UpstreamError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s responded with HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s failed: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying transport error, if any
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// NewUpstreamError builds an UpstreamError from a fetch outcome. When the
// response never arrived, statusCode is zero and cause carries the transport
// failure.
func NewUpstreamError(url string, statusCode int, cause error) *UpstreamError {
	return &UpstreamError{
		URL:        url,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// UpstreamStatus extracts the HTTP status carried by an upstream failure.
// It returns (0, false) when err is not an UpstreamError or when the failure
// was a transport error with no status.
func UpstreamStatus(err error) (int, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode != 0 {
		return upstream.StatusCode, true
	}
	return 0, false
}

// LogError logs the upstream failure with structured fields
func (e *UpstreamError) LogError(operation string) {
	logrus.WithFields(logrus.Fields{
		"operation":   operation,
		"url":         e.URL,
		"status_code": e.StatusCode,
		"cause":       e.Cause,
	}).Error("Upstream request failed")
}
