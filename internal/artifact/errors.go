// Package artifact turns decoded images into stored display artifacts: a BMP
// file in blob storage plus one metadata row, kept consistent with each other.
package artifact

import "errors"

var (
	// ErrDecode covers malformed, unsupported or zero-area source images.
	ErrDecode = errors.New("image decode error")

	// ErrStorageWrite is returned when the artifact bytes could not be written.
	ErrStorageWrite = errors.New("storage write error")

	// ErrMetadataWrite is returned when the metadata repository rejects a write.
	ErrMetadataWrite = errors.New("metadata write error")
)
