package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetNotFound is returned when the configuration asset is absent from the package.
	ErrAssetNotFound = errors.New("configuration asset not found")
	// ErrRead is returned when the asset cannot be read completely.
	ErrRead = errors.New("configuration asset read failed")
	// ErrParse is returned when the asset is not a UTF-8 JSON object.
	ErrParse = errors.New("configuration asset is not a valid JSON object")
)

// Kind classifies a load failure.
type Kind int

const (
	AssetNotFound Kind = iota + 1
	ReadError
	ParseError
)

func (k Kind) String() string {
	switch k {
	case AssetNotFound:
		return "asset_not_found"
	case ReadError:
		return "read_error"
	case ParseError:
		return "parse_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case AssetNotFound:
		return ErrAssetNotFound
	case ReadError:
		return ErrRead
	default:
		return ErrParse
	}
}

// Error describes a failed load of a named asset.
type Error struct {
	Kind  Kind
	Asset string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("load %s: %v: %v", e.Asset, e.Kind.sentinel(), e.Err)
}

// Unwrap exposes both the kind's sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}
