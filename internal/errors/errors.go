// Package errors provides the crawl error taxonomy.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Network represents transport failures (DNS, connection refused, reset).
	Network
	// Timeout represents request timeouts.
	Timeout
	// HTTPStatus represents any response whose status is not 200.
	HTTPStatus
	// Parse represents unparseable page content.
	Parse
	// MalformedURL represents a candidate link that is not a valid URL.
	MalformedURL
	// Config represents invalid static configuration.
	Config
	// Cancelled represents context cancellation.
	Cancelled
)

var typeNames = map[ErrorType]string{
	Network:      "network",
	Timeout:      "timeout",
	HTTPStatus:   "http_status",
	Parse:        "parse",
	MalformedURL: "malformed_url",
	Config:       "config",
	Cancelled:    "cancelled",
}

// String returns the metric label of the type.
func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsRetryable returns whether errors of this type may be retried by the downloader.
func (t ErrorType) IsRetryable() bool {
	switch t {
	case Network, Timeout:
		return true
	default:
		return false
	}
}

// CrawlError represents a categorized crawl error.
type CrawlError struct {
	Type       ErrorType
	URL        string
	Operation  string
	Message    string
	Cause      error
	StatusCode int    // set for HTTPStatus
	Field      string // set for Config
	Retryable  bool
}

// Error implements the error interface.
func (e *CrawlError) Error() string {
	switch {
	case e.Type == Config:
		return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
	case e.Type == HTTPStatus:
		return fmt.Sprintf("fetch %s: status <%d>", e.URL, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CrawlError of the same type.
func (e *CrawlError) Is(target error) bool {
	t, ok := target.(*CrawlError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewCrawlError creates a new CrawlError.
func NewCrawlError(errType ErrorType, url, operation, message string, cause error) *CrawlError {
	return &CrawlError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: errType.IsRetryable(),
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(url, operation string, cause error) *CrawlError {
	return NewCrawlError(Network, url, operation, "network failure", cause)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(url, operation string, cause error) *CrawlError {
	return NewCrawlError(Timeout, url, operation, "request timed out", cause)
}

// NewStatusError creates an error for a non-200 response.
func NewStatusError(url string, statusCode int) *CrawlError {
	err := NewCrawlError(HTTPStatus, url, "fetch", fmt.Sprintf("server returned %d", statusCode), nil)
	err.StatusCode = statusCode
	err.Retryable = statusCode == 429 || statusCode >= 500
	return err
}

// NewParseError creates a content parsing error.
func NewParseError(url, message string, cause error) *CrawlError {
	return NewCrawlError(Parse, url, "parse", message, cause)
}

// NewMalformedURLError creates an error for a link that does not parse as a URL.
func NewMalformedURLError(url string, cause error) *CrawlError {
	return NewCrawlError(MalformedURL, url, "admission", "malformed url", cause)
}

// NewConfigError creates an error for an invalid configuration field.
func NewConfigError(field, message string) *CrawlError {
	err := NewCrawlError(Config, "", "validate", message, nil)
	err.Field = field
	return err
}

// NewCancelledError creates a cancellation error.
func NewCancelledError(url, operation string) *CrawlError {
	return NewCrawlError(Cancelled, url, operation, "operation cancelled", context.Canceled)
}

// Categorize determines the error type from a generic error.
func Categorize(err error, url string) *CrawlError {
	if err == nil {
		return nil
	}

	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError(url, "fetch")
	}

	if isTimeout(err) {
		return NewTimeoutError(url, "fetch", err)
	}

	if isNetworkError(err) {
		return NewNetworkError(url, "fetch", err)
	}

	return NewCrawlError(Unknown, url, "fetch", err.Error(), err)
}

// CategorizeHTTPStatus returns an error for every status other than 200.
func CategorizeHTTPStatus(statusCode int, url string) *CrawlError {
	if statusCode == 200 {
		return nil
	}
	return NewStatusError(url, statusCode)
}

// isTimeout checks if an error is a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return strings.Contains(err.Error(), "timeout")
}

// networkErrnos are connection failures reported by the OS.
var networkErrnos = []error{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE}

// isNetworkError reports transport failures: dial, DNS and url errors
// from net/http, or a bare connection errno.
func isNetworkError(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
		urlErr *url.Error
	)
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &urlErr) {
		return true
	}
	for _, errno := range networkErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// IsRetryable checks if an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Retryable
	}

	return isTimeout(err) || isNetworkError(err)
}

// GetErrorType returns the ErrorType of err, or Unknown.
func GetErrorType(err error) ErrorType {
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Type
	}
	return Unknown
}
