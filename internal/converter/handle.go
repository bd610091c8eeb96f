package converter

import (
	"os"
)

// Handle is a revocable reference to preview bytes materialized as a
// temporary file. The engine releases a handle exactly once: when it is
// superseded by a newer one, or on reset.
type Handle struct {
	path     string
	released bool
}

func newHandle(data []byte, pattern string) (*Handle, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, err
	}
	return &Handle{path: f.Name()}, nil
}

// Path returns the backing file path, or "" after release.
func (h *Handle) Path() string {
	if h == nil || h.released {
		return ""
	}
	return h.path
}

// Released reports whether the handle has been revoked.
func (h *Handle) Released() bool {
	return h == nil || h.released
}

// Release revokes the handle and removes its backing file. Releasing a
// nil or already-released handle is a no-op.
func (h *Handle) Release() error {
	if h == nil || h.released {
		return nil
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
