package authz

import "errors"

var (
	// ErrRoleNotFound is returned when a role cannot be found in the database.
	ErrRoleNotFound = errors.New("role not found")

	// ErrInvalidRoute is returned when a submitted permission carries a
	// malformed route pattern.
	ErrInvalidRoute = errors.New("invalid route pattern")

	// ErrInvalidMethod is returned when a submitted permission carries an
	// unsupported HTTP method.
	ErrInvalidMethod = errors.New("invalid http method")

	// ErrInvalidKind is returned when a submitted permission carries an
	// unknown kind.
	ErrInvalidKind = errors.New("invalid permission kind")
)
