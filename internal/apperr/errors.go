// Package apperr defines the failure taxonomy shared by both pipelines.
//
// Every failure that leaves a component is marked with exactly one of the
// sentinel errors below. Marks survive further wrapping, so callers can
// classify an error with Is or Kind no matter how much context was added on
// the way up.
package apperr

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrFetch         = errors.New("fetch error")
	ErrParse         = errors.New("parse error")
	ErrNotFound      = errors.New("not found")
	ErrDelivery      = errors.New("delivery error")
)

var kinds = []struct {
	sentinel error
	label    string
}{
	{ErrConfiguration, "configuration"},
	{ErrFetch, "fetch"},
	{ErrParse, "parse"},
	{ErrNotFound, "not_found"},
	{ErrDelivery, "delivery"},
}

func Configuration(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrConfiguration, format, args...)
}

func Fetch(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrFetch, format, args...)
}

func Parse(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrParse, format, args...)
}

func NotFound(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrNotFound, format, args...)
}

func Delivery(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrDelivery, format, args...)
}

// Is reports whether err carries the given sentinel mark.
func Is(err, sentinel error) bool {
	return errors.Is(err, sentinel)
}

// Kind returns a stable label for logs and HTTP bodies, "unknown" when err
// was never classified.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.label
		}
	}
	return "unknown"
}

func mark(cause, sentinel error, format string, args ...interface{}) error {
	var err error
	if cause == nil {
		err = errors.NewWithDepthf(2, format, args...)
	} else {
		err = errors.WrapWithDepthf(2, cause, format, args...)
	}
	return errors.Mark(err, sentinel)
}
