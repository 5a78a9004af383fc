package bundle

import (
	"errors"
	"fmt"
)

var (
	ErrRootRequired       = errors.New("bundle: root directory is required")
	ErrInvalidSegment     = errors.New("bundle: invalid path segment")
	ErrDestinationExists  = errors.New("bundle: rename destination already exists")
	ErrDocumentMalformed  = errors.New("bundle: document is malformed")
	ErrVersionKeyReserved = errors.New("bundle: key collides with a version slot")
)

// DestinationExistsError reports a rename that would overwrite another
// entity's bundle. Renames never clobber; the caller decides how to recover.
type DestinationExistsError struct {
	EntityType string
	OldID      string
	NewID      string
	Locale     string
}

func (e *DestinationExistsError) Error() string {
	if e == nil {
		return ErrDestinationExists.Error()
	}
	return fmt.Sprintf("%s: %s/%s/%s -> %s", ErrDestinationExists.Error(), e.Locale, e.EntityType, e.OldID, e.NewID)
}

func (e *DestinationExistsError) Unwrap() error {
	return ErrDestinationExists
}

// MalformedDocumentError wraps a codec failure with the offending path so a
// hand-edited bundle can be located and repaired.
type MalformedDocumentError struct {
	Path string
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	if e == nil {
		return ErrDocumentMalformed.Error()
	}
	return fmt.Sprintf("%s: %s: %v", ErrDocumentMalformed.Error(), e.Path, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return ErrDocumentMalformed
}
