package hubapi

import (
	"errors"
	"fmt"
)

// ErrResponseTooLarge is wrapped in a TransportError when a response body
// exceeds the read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// ConfigurationError reports an endpoint that cannot be used. It is raised
// before any network I/O.
type ConfigurationError struct {
	Endpoint string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Endpoint == "" {
		return "endpoint not configured: " + e.Reason
	}
	return fmt.Sprintf("invalid endpoint %q: %s", e.Endpoint, e.Reason)
}

// StatusError is a completed exchange with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// TransportError wraps failures to complete an exchange: connection refused,
// DNS, timeouts, truncated bodies.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsTransportError reports whether err came from the network exchange,
// either a failed request or a non-2xx response.
func IsTransportError(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se)
}

// Class names the failure category of err for logs and metrics.
func Class(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case IsConfigurationError(err):
		return "configuration"
	case errors.As(err, &se):
		return "status"
	case IsTransportError(err):
		return "transport"
	default:
		return "other"
	}
}
