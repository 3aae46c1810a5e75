package normalize

import "errors"

// ErrMalformedMarker is returned for drive-end markers that are not "<ABBR> <yard-line>".
var ErrMalformedMarker = errors.New("malformed field position marker")
