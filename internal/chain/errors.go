package chain

import "errors"

var (
	// ErrReverted marks a view call the contract rejected. Callers degrade
	// to a documented fallback instead of failing the whole snapshot.
	ErrReverted = errors.New("contract call reverted")

	// ErrUnsupported marks a read the target vault generation does not expose
	ErrUnsupported = errors.New("call not supported by this vault generation")
)
