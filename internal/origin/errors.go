package origin

import (
	"fmt"
	"net/http"
)

// UpstreamError reports an origin fetch that did not yield usable content.
// Status is 0 for transport failures and timeouts.
type UpstreamError struct {
	URL    string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s: %v", e.URL, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %d %s: %v", e.URL, e.Status, http.StatusText(e.Status), e.Err)
	}
	return fmt.Sprintf("upstream %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
