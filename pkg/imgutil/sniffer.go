package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind identifies a detected image type.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindGIF
	KindBMP
	KindSVG
	KindWebP
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindGIF:
		return "gif"
	case KindBMP:
		return "bmp"
	case KindSVG:
		return "svg"
	case KindWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// MIME returns the canonical MIME type for the kind, or "" when unknown.
func (k Kind) MIME() string {
	switch k {
	case KindJPEG:
		return "image/jpeg"
	case KindPNG:
		return "image/png"
	case KindGIF:
		return "image/gif"
	case KindBMP:
		return "image/bmp"
	case KindSVG:
		return "image/svg+xml"
	case KindWebP:
		return "image/webp"
	default:
		return ""
	}
}

// sniffLen is how many leading bytes DetectHeader may need; binary
// signatures fit in 12 bytes, SVG needs room for an XML prolog.
const sniffLen = 512

var (
	pngSig   = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig  = []byte{0xff, 0xd8, 0xff}
	gif87Sig = []byte("GIF87a")
	gif89Sig = []byte("GIF89a")
	bmpSig   = []byte("BM")
	riffSig  = []byte("RIFF")
	webpSig  = []byte("WEBP")
	svgTag   = []byte("<svg")
	xmlTag   = []byte("<?xml")
)

// DetectHeader inspects the leading bytes of a file for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < 8 {
		return KindUnknown, errors.New("header too short")
	}

	if hasPrefix(header, jpegSig) {
		return KindJPEG, nil
	}
	if hasPrefix(header, pngSig) {
		return KindPNG, nil
	}
	if hasPrefix(header, gif87Sig) || hasPrefix(header, gif89Sig) {
		return KindGIF, nil
	}
	if hasPrefix(header, riffSig) && len(header) >= 12 && bytes.Equal(header[8:12], webpSig) {
		return KindWebP, nil
	}
	if hasPrefix(header, bmpSig) {
		return KindBMP, nil
	}

	trimmed := bytes.TrimLeft(header, " \t\r\n")
	if hasPrefix(trimmed, svgTag) {
		return KindSVG, nil
	}
	if hasPrefix(trimmed, xmlTag) && bytes.Contains(header, svgTag) {
		return KindSVG, nil
	}

	return KindUnknown, nil
}

// SniffFile reads the head of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads up to sniffLen bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return KindUnknown, err
	}

	return DetectHeader(header[:n])
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i := range prefix {
		if buf[i] != prefix[i] {
			return false
		}
	}
	return true
}
