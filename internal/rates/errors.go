package rates

import "errors"

// Lookup errors. An unknown vehicle type or surcharge is a caller contract
// violation and is rejected before any calculation, never defaulted silently.
var (
	ErrUnknownVehicleType = errors.New("unknown vehicle type")
	ErrUnknownSurcharge   = errors.New("unknown surcharge")
)
