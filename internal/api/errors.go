package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the platform API. Body carries the
// server's message text, which for conflicts is shown to the user as-is.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: unexpected status %d: %s", e.Status, e.Body)
}

// ErrAlreadyRated marks the duplicate-rating conflict; the server reports
// it via message text rather than a dedicated code.
var ErrAlreadyRated = errors.New("api: food already rated for this order")

// IsConflict reports whether err is a 409 response.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}
