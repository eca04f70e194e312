package model

import "errors"

// Validation errors. Always surfaced to the caller, never retried.
var (
	ErrInvalidVersion       = errors.New("invalid version")
	ErrInvalidURI           = errors.New("invalid asset uri")
	ErrAssetNotFound        = errors.New("asset not found")
	ErrPathNotFound         = errors.New("path does not exist")
	ErrReservedName         = errors.New("reserved pin name")
	ErrInvalidPinName       = errors.New("invalid pin name")
	ErrInvalidMetadata      = errors.New("invalid metadata")
	ErrInvalidKeyword       = errors.New("invalid keyword")
	ErrInvalidThumbnailName = errors.New("invalid thumbnail name")
	ErrDuplicateDestination = errors.New("duplicate destination path")
	ErrNotARepository       = errors.New("not a repository")
	ErrNestedRepository     = errors.New("repository nested inside another repository")
	ErrNestedAsset          = errors.New("asset nested inside another asset")
	ErrUnknownRepository    = errors.New("unknown repository")
	ErrInvalidQuery         = errors.New("invalid query")
)

// Consistency errors. The caller decides how to proceed.
var (
	ErrPinsBlockCollapse            = errors.New("pins block collapse")
	ErrVersionMismatch              = errors.New("pin version mismatch")
	ErrPinLocked                    = errors.New("pin is locked")
	ErrPinNotFound                  = errors.New("pin not found")
	ErrVersionPinned                = errors.New("version is referenced by a pin")
	ErrVersionNotFound              = errors.New("version not found")
	ErrPosterFrameNotFound          = errors.New("poster frame not found")
	ErrThumbnailFramesNotContiguous = errors.New("thumbnail frames are not contiguous from 1")
)

// ErrSlotExhausted is returned once an asset holds the maximum number of versions.
var ErrSlotExhausted = errors.New("version slots exhausted")

// ErrAllocationFailed is returned when the slot race was lost more times
// than the retry budget allows. Callers may retry the publish.
var ErrAllocationFailed = errors.New("version allocation failed")

// ErrCopyVerificationFailed is returned when a stored payload does not
// hash to the digest of its source.
var ErrCopyVerificationFailed = errors.New("copy verification failed")

// ErrIndexStale wraps index failures that happen after the filesystem
// change already completed. The operation took effect; the index needs a
// rebuild.
var ErrIndexStale = errors.New("repository index is stale")
