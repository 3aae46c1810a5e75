package teams

import "errors"

// ErrInvalidRegistry is returned when registry data cannot be used.
var ErrInvalidRegistry = errors.New("invalid team registry")
