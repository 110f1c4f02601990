package errors

import "errors"

var (
	ErrInvalidBatch      = errors.New("invalid batch descriptor")
	ErrMissingPostID     = errors.New("post id is required")
	ErrMissingCredential = errors.New("credential is required")
	ErrItemsNotSequence  = errors.New("items must be a sequence")
)
