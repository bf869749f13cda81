package orders

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned by tracking lookups for unknown order ids
var ErrOrderNotFound = errors.New("order not found")

// UnknownItemError aborts a commit when a draft item is not on the menu
type UnknownItemError struct {
	Name string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item: %s", e.Name)
}

// AsUnknownItem extracts an UnknownItemError from an error chain
func AsUnknownItem(err error) (*UnknownItemError, bool) {
	var unknownItem *UnknownItemError
	if errors.As(err, &unknownItem) {
		return unknownItem, true
	}
	return nil, false
}
