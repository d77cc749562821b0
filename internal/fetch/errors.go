package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is returned for non-2xx HTTP responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrUnsupportedScheme is returned for URLs other than http, https and file.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrInvalidProxyAddress is returned when the proxy address is not
	// "host:port" or "socks5://[user:pass@]host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// StatusError records the HTTP status of a non-2xx response.
// errors.Is(err, ErrUnexpectedStatus) reports true for it.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d from %s", ErrUnexpectedStatus, e.StatusCode, e.URL)
}

// Is makes StatusError match ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
