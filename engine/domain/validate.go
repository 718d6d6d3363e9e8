package domain

import (
	"net/url"
	"strings"
)

// ValidateCapture checks a capture before it enters the ingest pipeline.
func ValidateCapture(c Capture) error {
	if strings.TrimSpace(c.Text) == "" {
		return NewValidationError("text", "", ErrEmptyCapture)
	}
	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return NewValidationError("url", c.URL, ErrInvalidURL)
	}
	return nil
}

// ValidateAlignment checks the positional-coupling invariant between the
// document sequence and the vector sequence.
func ValidateAlignment(docs []Document, vectors []VectorEntry) error {
	if len(docs) != len(vectors) {
		return ErrMisaligned
	}
	for i := range docs {
		if docs[i].URL != vectors[i].URL {
			return ErrMisaligned
		}
	}
	return nil
}
