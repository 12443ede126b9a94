package meshprep

import "errors"

// Errors reported by the stream decoders. Decode failures leave the
// destination in an unspecified state; callers must discard it.
var (
	// ErrFormat means the one-byte format tag is unrecognized or names an
	// unsupported version.
	ErrFormat = errors.New("meshprep: unrecognized encoding format")

	// ErrTruncated means the input ended before the stream was complete.
	ErrTruncated = errors.New("meshprep: encoded stream truncated")

	// ErrTrailingBytes means the stream decoded fully but input remained.
	ErrTrailingBytes = errors.New("meshprep: trailing bytes after encoded stream")

	// ErrInvalidWidth means an index decode target width other than 2 or
	// 4 bytes was requested.
	ErrInvalidWidth = errors.New("meshprep: index size must be 2 or 4 bytes")

	// ErrMalformed means an interior codeword was invalid.
	ErrMalformed = errors.New("meshprep: malformed encoded stream")
)
