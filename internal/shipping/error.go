package shipping

import "errors"

var ErrInvalidDestination = errors.New("shipping destination needs a district and a ward")
