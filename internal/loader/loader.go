package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/carryapp/carry-config/assets"
	"github.com/carryapp/carry-config/internal/asset"
	"github.com/carryapp/carry-config/internal/metrics"
	"github.com/carryapp/carry-config/internal/value"
)

const (
	// DefaultAssetName is the asset read when no name is configured.
	DefaultAssetName = assets.ConfigName
	// DefaultMaxSize bounds how many bytes a single load reads.
	DefaultMaxSize int64 = 4 << 20
)

// Loader reads a bundled JSON asset and decodes it into a configuration map.
// It holds no mutable state; concurrent loads are independent.
type Loader struct {
	provider asset.Provider
	logger   *zap.Logger
	recorder metrics.Recorder
	name     string
	maxSize  int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithAssetName overrides the name of the asset to load.
func WithAssetName(name string) Option {
	return func(l *Loader) {
		if name != "" {
			l.name = name
		}
	}
}

// WithMaxSize overrides the largest asset, in bytes, a load accepts.
func WithMaxSize(size int64) Option {
	return func(l *Loader) {
		if size > 0 {
			l.maxSize = size
		}
	}
}

// WithRecorder reports every load outcome to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(l *Loader) {
		if rec != nil {
			l.recorder = rec
		}
	}
}

// New constructs a Loader reading from provider. A nil logger discards diagnostics.
func New(provider asset.Provider, logger *zap.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		provider: provider,
		logger:   logger,
		recorder: metrics.Nop{},
		name:     DefaultAssetName,
		maxSize:  DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AssetName returns the name of the asset the loader reads.
func (l *Loader) AssetName() string {
	return l.name
}

// LoadConfig loads the configuration asset. Failures never escape: each one
// is logged once and reported as (nil, false). An empty JSON object yields an
// empty, non-nil map and true.
func (l *Loader) LoadConfig() (cfg value.Object, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("configuration unavailable",
				zap.String("asset", l.name),
				zap.String("kind", "panic"),
				zap.Any("error", rec),
			)
			cfg, ok = nil, false
		}
	}()

	obj, err := l.Load()
	if err != nil {
		fields := []zap.Field{zap.String("asset", l.name), zap.Error(err)}
		var loadErr *Error
		if errors.As(err, &loadErr) {
			fields = append(fields, zap.Stringer("kind", loadErr.Kind))
		}
		l.logger.Error("configuration unavailable", fields...)
		return nil, false
	}
	return obj, true
}

// Load reads and decodes the configuration asset. Errors are *Error values
// matching ErrAssetNotFound, ErrRead or ErrParse.
func (l *Loader) Load() (value.Object, error) {
	start := time.Now()
	obj, err := l.load()
	l.recorder.ObserveLoad(outcome(err), time.Since(start))
	return obj, err
}

func (l *Loader) load() (obj value.Object, err error) {
	if l.provider == nil {
		return nil, l.fail(AssetNotFound, errors.New("no asset provider configured"))
	}

	stream, err := l.provider.Open(l.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, l.fail(AssetNotFound, err)
		}
		return nil, l.fail(ReadError, err)
	}
	if stream == nil || stream.ReadCloser == nil {
		return nil, l.fail(ReadError, errors.New("provider returned no stream"))
	}

	defer func() {
		closeErr := stream.Close()
		if closeErr == nil {
			return
		}
		var loadErr *Error
		if errors.As(err, &loadErr) {
			loadErr.Err = errors.Join(loadErr.Err, fmt.Errorf("close: %w", closeErr))
			return
		}
		l.logger.Warn("closing configuration asset failed", zap.String("asset", l.name), zap.Error(closeErr))
	}()

	data, err := readStream(stream, l.maxSize)
	if err != nil {
		return nil, l.fail(ReadError, err)
	}

	obj, err = value.Parse(data)
	if err != nil {
		return nil, l.fail(ParseError, err)
	}
	return obj, nil
}

func (l *Loader) fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Asset: l.name, Err: err}
}

// readStream reads the whole stream, which must hold exactly stream.Size bytes
// when the size is known.
func readStream(stream *asset.Stream, limit int64) ([]byte, error) {
	if stream.Size > limit {
		return nil, fmt.Errorf("asset is %d bytes, limit is %d", stream.Size, limit)
	}

	data, err := io.ReadAll(io.LimitReader(stream, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("asset exceeds limit of %d bytes", limit)
	}
	if stream.Size >= 0 && int64(len(data)) != stream.Size {
		return nil, fmt.Errorf("read %d of %d bytes: %w", len(data), stream.Size, io.ErrUnexpectedEOF)
	}
	return data, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrAssetNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrRead):
		return metrics.OutcomeReadError
	default:
		return metrics.OutcomeParseError
	}
}
