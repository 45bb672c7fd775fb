package model

import (
	"errors"
	"fmt"
)

// ErrInvalidFields is returned by Validate when a required field is empty or malformed
var ErrInvalidFields = errors.New("invalid fields")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidFields}, args...)...)
}
