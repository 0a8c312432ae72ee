package feed

import "fmt"

// FetchError wraps a network, HTTP or parse failure for one URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ContentTooShortError reports text below the minimum length for its use.
type ContentTooShortError struct {
	URL    string
	Length int
	Min    int
}

func (e *ContentTooShortError) Error() string {
	return fmt.Sprintf("content from %s too short: %d characters, need %d", e.URL, e.Length, e.Min)
}
