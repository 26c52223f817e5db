package support

import "errors"

var (
	ErrNotVisible = errors.New("handlers: resource not visible to actor")
	ErrIDRequired = errors.New("handlers: id is required")
)
