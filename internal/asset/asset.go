package asset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/carryapp/carry-config/assets"
)

// ErrNotFound is returned when the named asset is absent from the provider.
// It matches fs.ErrNotExist as well.
var ErrNotFound = fmt.Errorf("asset not found: %w", fs.ErrNotExist)

// Stream is an open asset with a known length. Callers must Close it.
type Stream struct {
	io.ReadCloser
	Size int64
}

// Provider opens named assets bundled with the application.
type Provider interface {
	Open(name string) (*Stream, error)
}

// FSProvider serves assets from an fs.FS.
type FSProvider struct {
	fsys fs.FS
}

// NewFSProvider wraps fsys as an asset Provider.
func NewFSProvider(fsys fs.FS) *FSProvider {
	return &FSProvider{fsys: fsys}
}

// Bundled returns a provider over the assets embedded in the binary.
func Bundled() *FSProvider {
	return NewFSProvider(assets.Bundle)
}

// Dir returns a provider over an on-disk directory.
func Dir(path string) *FSProvider {
	return NewFSProvider(os.DirFS(path))
}

// Open opens the named asset and reports its size.
func (p *FSProvider) Open(name string) (*Stream, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("open %q: %w", name, ErrNotFound)
	}

	f, err := p.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("open %q: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %q: %w", name, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %q: is a directory: %w", name, ErrNotFound)
	}

	return &Stream{ReadCloser: f, Size: info.Size()}, nil
}
