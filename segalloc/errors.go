package segalloc

import "errors"

var (
	// ErrArenaExhausted is returned when the HeapProvider cannot grow the
	// heap far enough to satisfy a request.
	ErrArenaExhausted = errors.New("segalloc: arena exhausted")

	// errAlreadyInit guards init from being called twice on one Allocator.
	errAlreadyInit = errors.New("segalloc: already initialized")
)
