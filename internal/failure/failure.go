// Package failure classifies the errors a resolution run can end with and
// names the pipeline stages they can happen in.
package failure

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against an *Error of the corresponding kind.
var (
	ErrNoSettingsFile      = errors.New("no settings file found")
	ErrUnsupportedFormat   = errors.New("unsupported or ambiguous configuration format")
	ErrParse               = errors.New("cannot parse configuration file")
	ErrOverlayPathConflict = errors.New("environment override descends through a non-table value")
	ErrMaterialization     = errors.New("cannot materialize configuration")
)

// Kind classifies a failed resolution.
type Kind uint8

const (
	KindNoSettingsFile Kind = iota + 1
	KindUnsupportedFormat
	KindParse
	KindOverlayPathConflict
	KindMaterialization
)

func (k Kind) String() string {
	switch k {
	case KindNoSettingsFile:
		return "NoSettingsFile"
	case KindUnsupportedFormat:
		return "UnsupportedOrAmbiguousFormat"
	case KindParse:
		return "ParseError"
	case KindOverlayPathConflict:
		return "OverlayPathConflict"
	case KindMaterialization:
		return "MaterializationError"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNoSettingsFile:
		return ErrNoSettingsFile
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindParse:
		return ErrParse
	case KindOverlayPathConflict:
		return ErrOverlayPathConflict
	case KindMaterialization:
		return ErrMaterialization
	default:
		return nil
	}
}

// Stage is a step of the resolution pipeline. A run moves forward through
// the stages and ends in Done or Failed; no stage is revisited.
type Stage uint8

const (
	StageIdle Stage = iota
	StageLocatingFiles
	StageParsingLayers
	StageMerging
	StageApplyingOverlay
	StageMaterializing
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageLocatingFiles:
		return "locating-files"
	case StageParsingLayers:
		return "parsing-layers"
	case StageMerging:
		return "merging"
	case StageApplyingOverlay:
		return "applying-overlay"
	case StageMaterializing:
		return "materializing"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Error is a classified resolution failure.
type Error struct {
	Kind  Kind
	Stage Stage
	// Path is the file involved, when there is one.
	Path string
	Err  error
}

// New returns a classified error.
func New(kind Kind, stage Stage, path string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := "configuration error"
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		msg = sentinel.Error()
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
