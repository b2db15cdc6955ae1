package domain

import "errors"

// ErrMalformedRecord marks input that cannot be classified: a prayer without
// an author or a content item of an unrecognised shape.
var ErrMalformedRecord = errors.New("malformed prayer record")
