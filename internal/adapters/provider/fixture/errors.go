package fixture

import "errors"

// ErrInvalidFixture is returned for fixture files that cannot be replayed.
var ErrInvalidFixture = errors.New("invalid fixture")
