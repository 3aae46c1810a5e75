package redzone

import "errors"

// ErrUnknownAbbrev is reported when a marker names neither side of the event.
var ErrUnknownAbbrev = errors.New("marker abbreviation names neither team")
