package types

import "fmt"

// FetchError is returned for any failed page or image request, whether the
// server answered with a non-success status or the request never completed.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// ExtractionError means no rule produced a value that was needed.
type ExtractionError struct {
	URL   string
	Field string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s from %s: no rule matched", e.Field, e.URL)
}

// AcquisitionError is an image download or write failure.
type AcquisitionError struct {
	URL   string
	Path  string
	Cause error
}

func (e *AcquisitionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("acquire image %s into %s: %v", e.URL, e.Path, e.Cause)
	}
	return fmt.Sprintf("acquire image %s: %v", e.URL, e.Cause)
}

func (e *AcquisitionError) Unwrap() error { return e.Cause }

// SamplingError is an image decode failure or an empty sample region.
type SamplingError struct {
	Path  string
	Cause error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sample color of %s: %v", e.Path, e.Cause)
}

func (e *SamplingError) Unwrap() error { return e.Cause }

// ListingExhaustedError is fatal: the collection page yielded no product links.
type ListingExhaustedError struct {
	URL   string
	Rules int
	Cause error
}

func (e *ListingExhaustedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no product links found on %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("no product links found on %s (tried %d listing rules)", e.URL, e.Rules)
}

func (e *ListingExhaustedError) Unwrap() error { return e.Cause }
