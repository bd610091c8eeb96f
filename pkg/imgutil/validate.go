package imgutil

import (
	"fmt"
	"strings"
)

// MaxFileSize is the largest input accepted for conversion, in bytes.
const MaxFileSize int64 = 10 * 1024 * 1024

// DefaultQuality is the encoder quality used when none is chosen.
const DefaultQuality = 0.90

// SupportedTypes is the MIME allow-list for conversion input.
var SupportedTypes = []string{
	"image/png",
	"image/jpeg",
	"image/jpg",
	"image/gif",
	"image/bmp",
	"image/svg+xml",
}

// FileInfo is the subset of a file the validator needs.
type FileInfo interface {
	ContentType() string
	Size() int64
}

// ValidationKind tags the reason a file was rejected.
type ValidationKind int

const (
	ValidationNoFile ValidationKind = iota
	ValidationUnsupportedType
	ValidationFileTooLarge
)

// ValidationError reports a rejected input file. The fields carry the
// relevant limits so callers can branch without parsing the message.
type ValidationError struct {
	Kind        ValidationKind
	ContentType string
	Size        int64
	Limit       int64
	Supported   []string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationNoFile:
		return "no file supplied"
	case ValidationUnsupportedType:
		return fmt.Sprintf("unsupported file type %q: please choose %s",
			e.ContentType, supportedLabel(e.Supported))
	case ValidationFileTooLarge:
		return fmt.Sprintf("file too large: %s exceeds the %s limit",
			FormatSize(e.Size), FormatSize(e.Limit))
	default:
		return "invalid file"
	}
}

// IsSupportedType reports whether mime is on the conversion allow-list.
func IsSupportedType(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for _, t := range SupportedTypes {
		if mime == t {
			return true
		}
	}
	return false
}

// WithinSizeLimit reports whether size fits under MaxFileSize. The limit
// itself is accepted.
func WithinSizeLimit(size int64) bool {
	return size <= MaxFileSize
}

// Validate checks f for conversion eligibility: presence first, then
// type, then size. A nil f fails with ValidationNoFile.
func Validate(f FileInfo) error {
	if f == nil {
		return &ValidationError{Kind: ValidationNoFile}
	}
	if !IsSupportedType(f.ContentType()) {
		return &ValidationError{
			Kind:        ValidationUnsupportedType,
			ContentType: f.ContentType(),
			Supported:   SupportedTypes,
		}
	}
	if !WithinSizeLimit(f.Size()) {
		return &ValidationError{
			Kind:  ValidationFileTooLarge,
			Size:  f.Size(),
			Limit: MaxFileSize,
		}
	}
	return nil
}

// supportedLabel renders the allow-list in uppercase extension form,
// e.g. "PNG, JPEG, JPG, GIF, BMP, SVG+XML".
func supportedLabel(types []string) string {
	if len(types) == 0 {
		types = SupportedTypes
	}
	labels := make([]string, 0, len(types))
	for _, t := range types {
		labels = append(labels, strings.ToUpper(strings.TrimPrefix(t, "image/")))
	}
	return strings.Join(labels, ", ")
}
