package hydroconf

import (
	"github.com/redhatinsights/hydroconf/internal/failure"
	"github.com/redhatinsights/hydroconf/internal/overlay"
)

// Error is the classified error returned by a failed resolution. Use
// errors.Is with the Err* sentinels to test its kind, or errors.As to reach
// the stage and file involved.
type Error = failure.Error

// ErrorKind classifies an Error.
type ErrorKind = failure.Kind

// Stage is a step of the resolution pipeline.
type Stage = failure.Stage

// OverlayConflictError is wrapped by ErrOverlayPathConflict errors and names
// the offending variable.
type OverlayConflictError = overlay.ConflictError

const (
	KindNoSettingsFile      = failure.KindNoSettingsFile
	KindUnsupportedFormat   = failure.KindUnsupportedFormat
	KindParse               = failure.KindParse
	KindOverlayPathConflict = failure.KindOverlayPathConflict
	KindMaterialization     = failure.KindMaterialization
)

var (
	ErrNoSettingsFile      = failure.ErrNoSettingsFile
	ErrUnsupportedFormat   = failure.ErrUnsupportedFormat
	ErrParse               = failure.ErrParse
	ErrOverlayPathConflict = failure.ErrOverlayPathConflict
	ErrMaterialization     = failure.ErrMaterialization
)
