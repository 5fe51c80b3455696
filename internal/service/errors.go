package service

import "errors"

// ErrInvalid marks request validation failures. The API layer maps it to
// a 400 response; everything else surfaces as a 500.
var ErrInvalid = errors.New("invalid input")
