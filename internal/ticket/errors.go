package ticket

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrTicketNotFound is returned when the referenced ticket does not exist.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrTicketClosed is returned when an operation is attempted on a completed ticket.
	ErrTicketClosed = errors.New("ticket is completed and no longer accepts messages")
	// ErrTitleRequired is returned when a ticket is submitted without a title.
	ErrTitleRequired = errors.New("ticket title is required")
	// ErrInvalidType is returned when the ticket type is not a known type.
	ErrInvalidType = errors.New("invalid ticket type")
	// ErrInvalidCoordinates is returned when the coordinate string does not
	// parse as exactly two floats.
	ErrInvalidCoordinates = errors.New("coordinates must be two comma separated numbers")
	// ErrAddressRequired is returned when a maintenance or installation
	// ticket is submitted without a site address.
	ErrAddressRequired = errors.New("address is required for this ticket type")
	// ErrClientRequired is returned when a staff user submits a ticket
	// without selecting a client.
	ErrClientRequired = errors.New("a client must be selected")
	// ErrClientRecordMissing is returned when a customer account has no
	// linked client record to derive the ticket's client from.
	ErrClientRecordMissing = errors.New("user has no linked client record")
	// ErrInvalidStatus is returned when the requested status is not a known
	// lifecycle state.
	ErrInvalidStatus = errors.New("invalid ticket status")
	// ErrInvalidTransition is returned when the requested status change is
	// not allowed from the ticket's current state.
	ErrInvalidTransition = errors.New("status change not allowed from current state")
)
