package shared

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Input validation errors
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFlag     = errors.New("invalid flag value")

	// Environment errors
	ErrMissingDependency = errors.New("missing external dependency")
	ErrLocked            = errors.New("another run holds the lock for this folder")
	ErrInterrupted       = errors.New("interrupted")

	// Batch errors
	ErrDiscovery     = errors.New("discovery failed")
	ErrPathCollision = errors.New("destination path collision")
	ErrTagExtraction = errors.New("tag extraction failed")
	ErrConversion    = errors.New("conversion failed")
	ErrVerification  = errors.New("verification failed")
	ErrDeletion      = errors.New("deletion failed")
	ErrBatchFailed   = errors.New("batch finished with failures")
)

// DiscoveryError reports that the scan root could not be walked at all.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() []error { return []error{ErrDiscovery, e.Err} }

// PathCollisionError lists every destination shared by more than one source.
type PathCollisionError struct {
	Collisions map[string][]string // destination -> sources
}

func (e *PathCollisionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d destination(s) would be written by more than one source", len(e.Collisions))
	for _, dest := range slices.Sorted(maps.Keys(e.Collisions)) {
		fmt.Fprintf(&b, "\n  %s <- %s", dest, strings.Join(e.Collisions[dest], ", "))
	}
	return b.String()
}

func (e *PathCollisionError) Is(target error) bool { return target == ErrPathCollision }

// TagExtractionError is recoverable: the file is converted without tags.
type TagExtractionError struct {
	Path string
	Err  error
}

func (e *TagExtractionError) Error() string {
	return fmt.Sprintf("read tags from %s: %v", e.Path, e.Err)
}

func (e *TagExtractionError) Unwrap() []error { return []error{ErrTagExtraction, e.Err} }

// ConversionError carries the tail of the encoder's stderr when it exited badly.
type ConversionError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("convert %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("convert %s: %v: %s", e.Path, e.Err, e.Stderr)
}

func (e *ConversionError) Unwrap() []error { return []error{ErrConversion, e.Err} }

// VerificationError marks a destination that is missing or empty after the batch.
type VerificationError struct {
	Path   string
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verify %s: %s", e.Path, e.Reason)
}

func (e *VerificationError) Is(target error) bool { return target == ErrVerification }

// DeletionError wraps a failed removal of a verified source.
type DeletionError struct {
	Path string
	Err  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Path, e.Err)
}

func (e *DeletionError) Unwrap() []error { return []error{ErrDeletion, e.Err} }
