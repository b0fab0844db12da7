package models

import "errors"

// ErrInvalidInput marks malformed caller input: bad amounts, implausible
// distances, unknown categories or statuses. Such errors are surfaced before
// any computation or persistence and are never partially applied.
var ErrInvalidInput = errors.New("invalid input")
