package sim

import "errors"

var (
	// ErrOutOfRange is returned when a price is requested for a block outside
	// [regionStart, regionStart+RegionLength].
	ErrOutOfRange = errors.New("block outside region")

	// ErrInvalidConfiguration is returned for parameters that can never produce
	// a meaningful price (non-positive lengths, negative inputs, unknown names).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDivisionByZero is returned when an adaptation law is invoked with a
	// target of zero, or with demand above target while limit <= target.
	ErrDivisionByZero = errors.New("division by zero in price adaptation")
)
