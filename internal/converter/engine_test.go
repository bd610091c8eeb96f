package converter

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"squish/pkg/imgutil"
)

func buildPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func buildGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), []color.Color{
		color.RGBA{A: 0xff},
		color.RGBA{R: 0xff, A: 0xff},
	})
	img.SetColorIndex(0, 0, 1)
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func buildBMP(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{G: 0xff, A: 0xff})
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	return buf.Bytes()
}

func loadPNG(t *testing.T, e *Engine, w, h int) *Source {
	t.Helper()
	src, err := e.LoadSource(context.Background(), NewFile("sample.png", "image/png", buildPNG(t, w, h)))
	if err != nil {
		t.Fatalf("load source: %v", err)
	}
	return src
}

// sizedFile reports a fabricated byte size over real content, for
// exercising the size limit and reduction math.
type sizedFile struct {
	File
	size int64
}

func (f sizedFile) Size() int64 { return f.size }

func TestLoadSourceRejectsUnsupportedType(t *testing.T) {
	e := New()
	_, err := e.LoadSource(context.Background(), NewFile("scan.tiff", "image/tiff", []byte("II*\x00")))

	var verr *imgutil.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Kind != imgutil.ValidationUnsupportedType {
		t.Fatalf("expected unsupported type, got kind %v", verr.Kind)
	}
	if e.State().HasSource {
		t.Fatal("failed load must not change state")
	}
}

func TestLoadSourceRejectsOversize(t *testing.T) {
	e := New()
	f := sizedFile{File: NewFile("big.png", "image/png", buildPNG(t, 4, 4)), size: imgutil.MaxFileSize + 1}
	_, err := e.LoadSource(context.Background(), f)

	var verr *imgutil.ValidationError
	if !errors.As(err, &verr) || verr.Kind != imgutil.ValidationFileTooLarge {
		t.Fatalf("expected FileTooLarge, got %v", err)
	}
}

func TestLoadSourceDecodeError(t *testing.T) {
	e := New()
	_, err := e.LoadSource(context.Background(), NewFile("fake.png", "image/png", []byte("definitely not a png")))

	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if e.State().HasSource {
		t.Fatal("failed decode must not change state")
	}
}

func TestLoadEncodeRoundTrip(t *testing.T) {
	e := New()
	src := loadPNG(t, e, 64, 48)

	if src.Width != 64 || src.Height != 48 {
		t.Fatalf("source dimensions %dx%d, want 64x48", src.Width, src.Height)
	}
	if src.Display.Released() {
		t.Fatal("display handle must be live after load")
	}

	result, err := e.Encode(context.Background(), 0.8)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if result.Quality != 0.8 {
		t.Fatalf("quality used = %v, want 0.8", result.Quality)
	}
	if result.Size == 0 || int64(len(result.Data)) != result.Size {
		t.Fatalf("inconsistent result size: %d vs %d bytes", result.Size, len(result.Data))
	}
	if want := imgutil.ReductionPercent(src.Size, result.Size); result.Reduction != want {
		t.Fatalf("reduction = %q, want %q", result.Reduction, want)
	}

	decoded, err := webp.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("output is not decodable WebP: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("output dimensions %dx%d, want 64x48", b.Dx(), b.Dy())
	}

	state := e.State()
	if !state.HasSource || state.Encoding || state.Quality != 0.8 {
		t.Fatalf("unexpected state after encode: %+v", state)
	}
}

func TestEncodeWithoutSource(t *testing.T) {
	e := New()
	if _, err := e.Encode(context.Background(), 0.9); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestSingleFlight(t *testing.T) {
	e := New()
	loadPNG(t, e, 8, 8)

	first, err := e.Encode(context.Background(), 0.9)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	e.mu.Lock()
	e.encoding = true
	e.mu.Unlock()

	if _, err := e.Encode(context.Background(), 0.5); !errors.Is(err, ErrEncodeInProgress) {
		t.Fatalf("expected ErrEncodeInProgress, got %v", err)
	}
	if err := e.Reset(); !errors.Is(err, ErrBusy) {
		t.Fatalf("reset while converting: expected ErrBusy, got %v", err)
	}
	if _, err := e.LoadSource(context.Background(), NewFile("other.png", "image/png", buildPNG(t, 4, 4))); !errors.Is(err, ErrBusy) {
		t.Fatalf("load while converting: expected ErrBusy, got %v", err)
	}

	// The pending result is untouched by the rejected calls.
	if e.result != first || first.Preview.Released() {
		t.Fatal("rejected calls must not disturb the live result")
	}

	e.mu.Lock()
	e.encoding = false
	e.mu.Unlock()

	if _, err := e.Encode(context.Background(), 0.5); err != nil {
		t.Fatalf("encode after flag cleared: %v", err)
	}
}

func TestConcurrentEncodesFailFast(t *testing.T) {
	e := New()
	loadPNG(t, e, 256, 256)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, busy := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Encode(context.Background(), 0.7)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrEncodeInProgress):
				busy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok == 0 {
		t.Fatal("at least one encode must succeed")
	}
	if ok+busy != 8 {
		t.Fatalf("accounted for %d of 8 calls", ok+busy)
	}
	if e.State().Encoding {
		t.Fatal("encoding flag leaked")
	}
}

func TestRequalityReleasesPreviousPreview(t *testing.T) {
	e := New()
	loadPNG(t, e, 16, 16)

	first, err := e.Encode(context.Background(), 0.9)
	if err != nil {
		t.Fatalf("first encode: %v", err)
	}
	firstPath := first.Preview.Path()
	if firstPath == "" {
		t.Fatal("first preview must have a path")
	}

	second, err := e.Encode(context.Background(), 0.3)
	if err != nil {
		t.Fatalf("second encode: %v", err)
	}

	if !first.Preview.Released() {
		t.Fatal("superseded preview must be released")
	}
	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Fatalf("superseded preview file still present: %v", err)
	}
	if second.Preview.Released() {
		t.Fatal("live preview must not be released")
	}
}

func TestLoadNewSourceDiscardsStaleResult(t *testing.T) {
	e := New()
	loadPNG(t, e, 16, 16)
	stale, err := e.Encode(context.Background(), 0.9)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, err := e.LoadSource(context.Background(), NewFile("next.gif", "image/gif", buildGIF(t, 3, 3))); err != nil {
		t.Fatalf("second load: %v", err)
	}

	if !stale.Preview.Released() {
		t.Fatal("stale result preview must be released on new load")
	}
	if _, err := e.Download(t.TempDir(), ""); !errors.Is(err, ErrNoResult) {
		t.Fatalf("stale result must be discarded, got %v", err)
	}
}

func TestResetIdempotent(t *testing.T) {
	e := New()
	src := loadPNG(t, e, 8, 8)
	result, err := e.Encode(context.Background(), 0.4)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := e.Reset(); err != nil {
			t.Fatalf("reset %d: %v", i+1, err)
		}
		want := State{HasSource: false, Encoding: false, Quality: 0.9}
		if diff := cmp.Diff(want, e.State()); diff != "" {
			t.Fatalf("state after reset %d (-want +got):\n%s", i+1, diff)
		}
	}

	if !src.Display.Released() || !result.Preview.Released() {
		t.Fatal("reset must release both handles")
	}
}

func TestDownload(t *testing.T) {
	e := New()
	dir := t.TempDir()

	if _, err := e.Download(dir, ""); !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}

	if _, err := e.LoadSource(context.Background(), NewFile("my.photo.png", "image/png", buildPNG(t, 10, 10))); err != nil {
		t.Fatalf("load: %v", err)
	}
	result, err := e.Encode(context.Background(), 0.9)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	path, err := e.Download(dir, "")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(path) != "my.photo.webp" {
		t.Fatalf("derived name = %q, want my.photo.webp", filepath.Base(path))
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(written, result.Data) {
		t.Fatal("written bytes differ from result")
	}

	custom, err := e.Download(dir, "renamed.webp")
	if err != nil {
		t.Fatalf("download custom: %v", err)
	}
	if filepath.Base(custom) != "renamed.webp" {
		t.Fatalf("custom name = %q", filepath.Base(custom))
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, "squish-*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("transient files not cleaned up: %v", leftovers)
	}
}

func TestSetQualityNormalizes(t *testing.T) {
	e := New()
	loadPNG(t, e, 8, 8)

	result, err := e.SetQuality(context.Background(), 85)
	if err != nil {
		t.Fatalf("set quality: %v", err)
	}
	if result.Quality != 0.85 {
		t.Fatalf("quality = %v, want 0.85", result.Quality)
	}

	result, err = e.SetQuality(context.Background(), 150)
	if err != nil {
		t.Fatalf("set quality over range: %v", err)
	}
	if result.Quality != 1.0 {
		t.Fatalf("quality = %v, want clamped 1.0", result.Quality)
	}
}

func TestReductionAgainstDeclaredSize(t *testing.T) {
	e := New()
	f := sizedFile{File: NewFile("photo.png", "image/png", buildPNG(t, 32, 32)), size: 5_000_000}
	if _, err := e.LoadSource(context.Background(), f); err != nil {
		t.Fatalf("load: %v", err)
	}

	result, err := e.Encode(context.Background(), 0.9)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := imgutil.ReductionPercent(5_000_000, result.Size)
	if result.Reduction != want {
		t.Fatalf("reduction = %q, want %q (against the original size)", result.Reduction, want)
	}
}

func TestDecodeBMP(t *testing.T) {
	e := New()
	src, err := e.LoadSource(context.Background(), NewFile("pixelart.bmp", "image/bmp", buildBMP(t, 5, 7)))
	if err != nil {
		t.Fatalf("load bmp: %v", err)
	}
	if src.Width != 5 || src.Height != 7 {
		t.Fatalf("bmp dimensions %dx%d, want 5x7", src.Width, src.Height)
	}
}

func TestDecodeSVG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 10">` +
		`<rect width="20" height="10" fill="#3366cc"/></svg>`)

	e := New()
	src, err := e.LoadSource(context.Background(), NewFile("logo.svg", "image/svg+xml", svg))
	if err != nil {
		t.Fatalf("load svg: %v", err)
	}
	if src.Width != 20 || src.Height != 10 {
		t.Fatalf("svg raster %dx%d, want 20x10", src.Width, src.Height)
	}

	if _, err := e.Encode(context.Background(), 0.9); err != nil {
		t.Fatalf("encode svg raster: %v", err)
	}
}

func TestHandleReleaseIsIdempotent(t *testing.T) {
	h, err := newHandle([]byte("payload"), "squish-test-*")
	if err != nil {
		t.Fatalf("new handle: %v", err)
	}
	path := h.Path()
	if err := h.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := h.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if h.Path() != "" {
		t.Fatal("released handle must not expose a path")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("backing file must be removed")
	}

	var nilHandle *Handle
	if err := nilHandle.Release(); err != nil {
		t.Fatalf("nil release: %v", err)
	}
}
