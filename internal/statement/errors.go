package statement

import "errors"

// ErrInconsistentTotals marks an internal invariant failure: a composed
// section subtotal disagrees with the aggregated category total. This is a
// defect, not a user-facing error; it fails loudly instead of being silently
// corrected.
var ErrInconsistentTotals = errors.New("statement totals inconsistent with aggregated summary")
