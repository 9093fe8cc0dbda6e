package scene

import "errors"

var (
	ErrDuplicateName  = errors.New("duplicate-object-name")
	ErrObjectNotFound = errors.New("object-not-found")
)
