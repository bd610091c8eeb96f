package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource is returned when an operation needs a loaded source
	// image and none is present.
	ErrNoSource = errors.New("no source image loaded")

	// ErrNoResult is returned when a download is requested before any
	// successful encode.
	ErrNoResult = errors.New("no conversion result available")

	// ErrEncodeInProgress is returned when a second encode is started
	// while one is already in flight.
	ErrEncodeInProgress = errors.New("encode already in progress")

	// ErrBusy is returned when the engine is asked to reset or load a
	// new source while an encode is in flight.
	ErrBusy = errors.New("engine busy: encode in flight")
)

// DecodeError reports bytes that could not be rasterized.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeFailedError reports a WebP encode that produced no usable
// output. The engine stays loaded, so the caller may retry.
type EncodeFailedError struct {
	Err error
}

func (e *EncodeFailedError) Error() string {
	if e.Err == nil {
		return "webp encoder produced no output"
	}
	return fmt.Sprintf("webp encode failed: %v", e.Err)
}

func (e *EncodeFailedError) Unwrap() error { return e.Err }
