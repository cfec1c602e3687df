package stt

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTranscript is returned when the ASR service answered with blank text.
	ErrEmptyTranscript = errors.New("transcription returned empty text")

	// ErrUnsupportedMetadata is returned when a session asks for a language or
	// audio layout the provider does not declare.
	ErrUnsupportedMetadata = errors.New("unsupported speech metadata")

	// ErrMalformedMetadata is returned when the X-Speech-Content header cannot be parsed.
	ErrMalformedMetadata = errors.New("malformed speech metadata")
)

// HTTPError is a non-2xx answer from the ASR service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("asr API error (status %d)", e.StatusCode)
}
