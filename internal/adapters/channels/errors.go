package channels

import "errors"

// ErrInvalidMap is returned for channel files that cannot be parsed.
var ErrInvalidMap = errors.New("invalid channel map")
