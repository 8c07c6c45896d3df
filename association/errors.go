package association

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks a window that cannot be assigned because the reference
// catalogs or the submitted land blocks do not fit it. The window is left untouched.
var ErrConfiguration = errors.New("association: configuration error")

// ErrNonUniformDepth is returned when the readings of one window disagree on set depth.
var ErrNonUniformDepth = fmt.Errorf("%w: set depth is not uniform within the window", ErrConfiguration)
