// Package converter holds a single image's conversion lifecycle: load
// and decode a source, re-encode it to WebP at a chosen quality, and
// hand out size-reduction statistics. One Engine serves one session.
package converter

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"

	"squish/pkg/imgutil"
)

// Source is the loaded input image, decoded and ready to encode.
type Source struct {
	Name        string
	ContentType string
	Size        int64
	Width       int
	Height      int
	Bitmap      image.Image
	Display     *Handle
}

// Result is one successful WebP encode of the current source.
type Result struct {
	Data      []byte
	Size      int64
	Quality   float64
	Reduction string
	Width     int
	Height    int
	Preview   *Handle
}

// State is a point-in-time copy of the engine's flags; it shares no
// memory with the engine.
type State struct {
	HasSource bool
	Encoding  bool
	Quality   float64
}

// Engine owns at most one source image and one conversion result at a
// time. Callers serialize their own operations; the engine enforces
// only the single-flight encode rule.
type Engine struct {
	mu       sync.Mutex
	src      *Source
	result   *Result
	encoding bool
	quality  float64
}

// New returns an empty engine at the default quality.
func New() *Engine {
	return &Engine{quality: imgutil.DefaultQuality}
}

// LoadSource validates and decodes f, replacing any current source. A
// stale conversion result is discarded and its preview released. On any
// failure the engine is left exactly as it was.
func (e *Engine) LoadSource(ctx context.Context, f File) (*Source, error) {
	e.mu.Lock()
	if e.encoding {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.mu.Unlock()

	if err := imgutil.Validate(f); err != nil {
		return nil, err
	}

	data, err := f.Bytes()
	if err != nil {
		return nil, err
	}

	bitmap, err := decodeBitmap(ctx, data, f.ContentType())
	if err != nil {
		return nil, err
	}

	display, err := newHandle(data, "squish-source-*"+displayExt(f.Name()))
	if err != nil {
		return nil, err
	}

	bounds := bitmap.Bounds()
	src := &Source{
		Name:        f.Name(),
		ContentType: f.ContentType(),
		Size:        f.Size(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Bitmap:      bitmap,
		Display:     display,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.encoding {
		_ = display.Release()
		return nil, ErrBusy
	}
	if e.result != nil {
		_ = e.result.Preview.Release()
		e.result = nil
	}
	if e.src != nil {
		_ = e.src.Display.Release()
	}
	e.src = src
	return src, nil
}

// Encode re-encodes the current source as WebP at quality (0.0-1.0,
// clamped). At most one encode runs per engine; a concurrent call fails
// fast with ErrEncodeInProgress and leaves the pending one untouched.
func (e *Engine) Encode(ctx context.Context, quality float64) (*Result, error) {
	quality = clampQuality(quality)

	e.mu.Lock()
	if e.src == nil {
		e.mu.Unlock()
		return nil, ErrNoSource
	}
	if e.encoding {
		e.mu.Unlock()
		return nil, ErrEncodeInProgress
	}
	e.encoding = true
	src := e.src
	e.mu.Unlock()

	data, err := encodeWebP(ctx, src.Bitmap, quality)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.encoding = false
	if err != nil {
		return nil, err
	}

	preview, err := newHandle(data, "squish-preview-*.webp")
	if err != nil {
		return nil, err
	}

	if e.result != nil {
		_ = e.result.Preview.Release()
	}
	result := &Result{
		Data:      data,
		Size:      int64(len(data)),
		Quality:   quality,
		Reduction: imgutil.ReductionPercent(src.Size, int64(len(data))),
		Width:     src.Width,
		Height:    src.Height,
		Preview:   preview,
	}
	e.result = result
	e.quality = quality
	return result, nil
}

// SetQuality re-encodes at an integer percentage 0-100.
func (e *Engine) SetQuality(ctx context.Context, percent int) (*Result, error) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return e.Encode(ctx, float64(percent)/100)
}

// Download writes the current result into dir. The file is named after
// the source with a .webp extension unless customName overrides it.
// Returns the written path.
func (e *Engine) Download(dir, customName string) (string, error) {
	e.mu.Lock()
	result := e.result
	var srcName string
	if e.src != nil {
		srcName = e.src.Name
	}
	e.mu.Unlock()

	if result == nil {
		return "", ErrNoResult
	}

	name := customName
	if name == "" {
		name = imgutil.DeriveOutputName(srcName)
	}
	destPath := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "squish-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(result.Data); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := replaceFile(tmp.Name(), destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// Reset releases both preview handles and returns the engine to the
// empty state with the default quality. Resetting an empty engine is a
// no-op; resetting while an encode is in flight fails with ErrBusy.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.encoding {
		return ErrBusy
	}
	if e.result != nil {
		_ = e.result.Preview.Release()
		e.result = nil
	}
	if e.src != nil {
		_ = e.src.Display.Release()
		e.src = nil
	}
	e.quality = imgutil.DefaultQuality
	return nil
}

// State returns a snapshot of the engine's flags.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		HasSource: e.src != nil,
		Encoding:  e.encoding,
		Quality:   e.quality,
	}
}

func displayExt(name string) string {
	if ext := filepath.Ext(name); ext != "" {
		return ext
	}
	return ".img"
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
