package nepse

import (
	"errors"
	"fmt"
)

// ErrDateUnavailable is returned when the server explicitly rejects a
// business date mid-pagination ("Searched Date is not valid."). The fetch
// for that day terminates immediately and yields no data; it is expected
// control flow, not a transport failure.
var ErrDateUnavailable = errors.New("searched date is not valid")

// ErrUnauthorized marks a 401 that survived the single refresh-and-retry.
var ErrUnauthorized = errors.New("unauthorized after token refresh")

// StatusError reports a non-2xx response after transport retries were
// exhausted.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
