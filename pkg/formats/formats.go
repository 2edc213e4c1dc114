// Package formats provides parsers and encoders for the rigkit binary model
// and animation files.
//
// Every file starts with a 4-byte magic and a two-byte version. All values
// are little-endian, strings and arrays are prefixed with a u32 length.
package formats

import (
	"errors"
	"fmt"
)

// Format errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrTruncated          = errors.New("truncated data")
	ErrInvalidCount       = errors.New("invalid element count")
)

// File magics.
const (
	MagicModel      = "TMDL"
	MagicMeshShape  = "TMSH"
	MagicMeshBuffer = "TMBF"
	MagicMaterial   = "TMTR"
	MagicSkeleton   = "TSKL"
	MagicMotion     = "TANM"
	MagicVisibility = "TACN"
)

// CurrentVersion is the version written by the encoders.
var CurrentVersion = Version{Major: 1, Minor: 1}

// Version represents a file version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v Version) AtLeast(major, minor uint8) bool {
	if v.Major > major {
		return true
	}
	if v.Major == major && v.Minor >= minor {
		return true
	}
	return false
}

// StructuralError reports a required block of an asset that is missing or
// cannot be parsed. It is fatal for that asset only.
type StructuralError struct {
	Asset string // asset identifier, usually the file name
	Field string // block or field that failed
	Err   error
}

func (e *StructuralError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("asset %q: %v", e.Asset, e.Err)
	}
	return fmt.Sprintf("asset %q: %s: %v", e.Asset, e.Field, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// NewStructuralError wraps err with the asset and field that failed.
func NewStructuralError(asset, field string, err error) *StructuralError {
	return &StructuralError{Asset: asset, Field: field, Err: err}
}

// RecordError describes a length-prefixed record that was skipped.
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}
