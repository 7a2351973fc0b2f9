package fetcher

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"resty.dev/v3"
)

const (
	// DefaultRetryCount is used when an adapter is built without an explicit retry count
	DefaultRetryCount = 2

	defaultRetryWaitTime    = 500 * time.Millisecond
	defaultRetryMaxWaitTime = 5 * time.Second
)

// NewHTTPClient creates a new HTTP client with retry logic and exponential backoff.
// A retryCount of zero disables retries.
func NewHTTPClient(baseURL string, retryCount int) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook)

	return client
}

// retryCondition determines whether a request should be retried based on the response and error
func retryCondition(r *resty.Response, err error) bool {
	// Retry on network errors
	if err != nil {
		return true
	}

	switch {
	case r.StatusCode() >= 500:
		return true
	case r.StatusCode() == 429:
		return true
	case r.StatusCode() == 408:
		return true
	}

	return false
}

// retryHook logs retry attempts for observability
func retryHook(r *resty.Response, err error) {
	if err != nil {
		slog.Debug("retrying request due to error",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"error", err.Error())
		return
	}

	slog.Debug("retrying request due to status code",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode())
}

// Get sends req to path and classifies every failure as a FetchError: transport
// errors, non-2xx statuses and payloads that do not decode into the request's
// result type.
func Get(req *resty.Request, path string) (*resty.Response, error) {
	resp, err := req.Get(path)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return resp, &FetchError{
				Type:    ErrorTypeValidation,
				Message: "malformed response body",
				Cause:   err,
			}
		}
		return resp, ClassifyRequestError(err)
	}

	if !resp.IsSuccess() {
		return resp, ClassifyHTTPError(resp.StatusCode())
	}

	return resp, nil
}
