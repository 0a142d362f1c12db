package milhas

import "errors"

// ErrInvalidQuantity is returned when an allocation is requested for a
// non-positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be positive")
