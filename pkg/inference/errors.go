/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error values for the layout inference engine. Out-of-bounds extraction is a
local condition that ends a run; an invalid configuration is a caller error reported before
any scanning happens.
*/

package inference

import "errors"

var (
	// ErrOutOfBounds is returned by Extract when a record's fields run past the end of the buffer.
	// The scanner treats it as the end of the current run and never propagates it.
	ErrOutOfBounds = errors.New("record out of bounds")

	// ErrInvalidConfiguration is returned when a layout has a zero stride or a field that does
	// not fit inside the stride.
	ErrInvalidConfiguration = errors.New("invalid layout configuration")
)
