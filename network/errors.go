package network

import "errors"

// ErrConfiguration indicates an invalid generation configuration
// (fewer than one node, non-positive attachment count).
var ErrConfiguration = errors.New("network: invalid configuration")
