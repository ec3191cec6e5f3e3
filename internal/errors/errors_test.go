package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

// =============================================================================
// ErrorType Tests
// =============================================================================

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{Unknown, "unknown"},
		{Network, "network"},
		{Timeout, "timeout"},
		{HTTPStatus, "http_status"},
		{Parse, "parse"},
		{MalformedURL, "malformed_url"},
		{Config, "config"},
		{Cancelled, "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_IsRetryable(t *testing.T) {
	tests := []struct {
		errType   ErrorType
		retryable bool
	}{
		{Network, true},
		{Timeout, true},
		{HTTPStatus, false},
		{Parse, false},
		{MalformedURL, false},
		{Config, false},
		{Cancelled, false},
		{Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			if got := tt.errType.IsRetryable(); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

// =============================================================================
// CrawlError Tests
// =============================================================================

func TestCrawlError_Error(t *testing.T) {
	err := NewCrawlError(Parse, "http://ics.uci.edu/", "parse", "bad markup", nil)
	want := "parse error during parse on http://ics.uci.edu/: bad markup"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCrawlError_UnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewNetworkError("http://ics.uci.edu/", "fetch", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !errors.Is(err, &CrawlError{Type: Network}) {
		t.Error("errors.Is should match on type")
	}
	if errors.Is(err, &CrawlError{Type: Timeout}) {
		t.Error("errors.Is should not match a different type")
	}
}

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{404, false},
		{403, false},
		{301, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := NewStatusError("http://ics.uci.edu/", tt.status)
			if err.Type != HTTPStatus {
				t.Errorf("Type = %v, want %v", err.Type, HTTPStatus)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
			if err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.retryable)
			}
		})
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("workers", "must be at least 1")
	if err.Type != Config {
		t.Errorf("Type = %v, want %v", err.Type, Config)
	}
	if GetErrorType(err) != Config {
		t.Errorf("GetErrorType() = %v, want %v", GetErrorType(err), Config)
	}
	if err.Field != "workers" {
		t.Errorf("Field = %q, want workers", err.Field)
	}
	if want := "invalid config workers: must be at least 1"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// =============================================================================
// Categorize Tests
// =============================================================================

func TestCategorize(t *testing.T) {
	existing := NewParseError("u", "bad", nil)

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"crawl error passthrough", existing, Parse},
		{"wrapped crawl error", fmt.Errorf("wrap: %w", existing), Parse},
		{"canceled", context.Canceled, Cancelled},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "x.invalid"}, Network},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, Network},
		{"unknown", errors.New("something odd"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tt.err, "u")
			if got.Type != tt.want {
				t.Errorf("Categorize().Type = %v, want %v", got.Type, tt.want)
			}
		})
	}

	if Categorize(nil, "u") != nil {
		t.Error("Categorize(nil) should return nil")
	}
}

func TestCategorizeHTTPStatus(t *testing.T) {
	if err := CategorizeHTTPStatus(200, "u"); err != nil {
		t.Errorf("CategorizeHTTPStatus(200) = %v, want nil", err)
	}

	for _, status := range []int{201, 204, 301, 302, 404, 500} {
		err := CategorizeHTTPStatus(status, "u")
		if err == nil {
			t.Errorf("CategorizeHTTPStatus(%d) = nil, want error", status)
			continue
		}
		if err.StatusCode != status {
			t.Errorf("StatusCode = %d, want %d", err.StatusCode, status)
		}
		if want := fmt.Sprintf("fetch u: status <%d>", status); err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", NewNetworkError("u", "fetch", nil), true},
		{"timeout", NewTimeoutError("u", "fetch", nil), true},
		{"404", NewStatusError("u", 404), false},
		{"503", NewStatusError("u", 503), true},
		{"parse", NewParseError("u", "bad", nil), false},
		{"plain deadline", context.DeadlineExceeded, true},
		{"plain error", errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Retry Tests
// =============================================================================

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if len(cfg.RetryableTypes) == 0 {
		t.Error("RetryableTypes should not be empty")
	}
}

func TestRetrier_Do_NoRetriesByDefault(t *testing.T) {
	r := NewRetrier(DefaultRetryConfig())
	calls := 0

	result := r.Do(context.Background(), "fetch", "u", func(ctx context.Context) error {
		calls++
		return NewNetworkError("u", "fetch", nil)
	})

	if result.Success {
		t.Error("Should fail")
	}
	if calls != 1 {
		t.Errorf("Function called %d times, want 1", calls)
	}
}

func TestRetrier_Do_RetryOnError(t *testing.T) {
	r := NewRetrier(RetryConfig{
		MaxRetries:     2,
		InitialDelay:   time.Millisecond,
		MaxDelay:       10 * time.Millisecond,
		Multiplier:     2.0,
		RetryableTypes: []ErrorType{Network},
	})

	calls := 0
	result := r.Do(context.Background(), "fetch", "u", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewNetworkError("u", "fetch", nil)
		}
		return nil
	})

	if !result.Success {
		t.Error("Should succeed after retries")
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestRetrier_Do_NoRetryForNonRetryable(t *testing.T) {
	r := NewRetrier(RetryConfig{
		MaxRetries:     3,
		InitialDelay:   time.Millisecond,
		MaxDelay:       time.Millisecond,
		Multiplier:     2.0,
		RetryableTypes: []ErrorType{Network},
	})
	calls := 0

	result := r.Do(context.Background(), "fetch", "u", func(ctx context.Context) error {
		calls++
		return NewStatusError("u", 404)
	})

	if result.Success {
		t.Error("Should fail")
	}
	if calls != 1 {
		t.Errorf("Function called %d times, want 1 (no retry)", calls)
	}
	var crawlErr *CrawlError
	if !errors.As(result.LastError, &crawlErr) || crawlErr.StatusCode != 404 {
		t.Errorf("LastError = %v, want status 404", result.LastError)
	}
}

func TestRetrier_Do_ContextCancellation(t *testing.T) {
	r := NewRetrier(RetryConfig{
		MaxRetries:     5,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       time.Second,
		Multiplier:     2.0,
		RetryableTypes: []ErrorType{Network},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := r.Do(ctx, "fetch", "u", func(ctx context.Context) error {
		return NewNetworkError("u", "fetch", nil)
	})

	if result.Success {
		t.Error("Should fail on cancellation")
	}
	if GetErrorType(result.LastError) != Cancelled {
		t.Errorf("LastError type = %v, want %v", GetErrorType(result.LastError), Cancelled)
	}
}

func TestDoWithResult(t *testing.T) {
	r := NewRetrier(DefaultRetryConfig())

	got, res := DoWithResult(context.Background(), r, "fetch", "u", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if !res.Success || got != 42 {
		t.Errorf("DoWithResult() = %d, %v; want 42, true", got, res.Success)
	}
}
