package xgate

import "errors"

var (
	// ErrMaskSize rejects BitMask construction with a negative size.
	ErrMaskSize = errors.New("xgate: negative bitmask size")
	// ErrBitRange rejects a bit index or bit range outside [0, Size()).
	ErrBitRange = errors.New("xgate: bit index out of range")

	// ErrBlankName rejects level/writer names that are empty or whitespace only.
	ErrBlankName = errors.New("xgate: name empty or whitespace only")
	// ErrNameLineBreak rejects names containing LF, CR, FF, U+2028 or U+2029.
	ErrNameLineBreak = errors.New("xgate: name contains line break characters")

	// ErrEmptyTag rejects empty writer tags.
	ErrEmptyTag = errors.New("xgate: empty tag")
	// ErrTagChars rejects tags with characters outside the allowed set.
	ErrTagChars = errors.New("xgate: tag contains characters outside the allowed set")

	// ErrNilConfiguration rejects installing a nil Configuration.
	ErrNilConfiguration = errors.New("xgate: nil configuration")
	// ErrNilType rejects deriving a writer name from a nil reflect.Type.
	ErrNilType = errors.New("xgate: nil type")
)
