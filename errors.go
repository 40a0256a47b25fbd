package fitstream

import "errors"

var (
	// ErrInvalidGeometry reports a zero or negative dimension, or a target
	// aspect ratio that is not a positive finite number.
	ErrInvalidGeometry = errors.New("fitstream: invalid geometry")
	// ErrAllocationFailure reports that an output buffer could not be created.
	ErrAllocationFailure = errors.New("fitstream: allocation failure")
	// ErrNoSource reports an activation attempt without a source.
	ErrNoSource = errors.New("fitstream: no source configured")
	// ErrEngineDisposed reports use of an engine after Dispose.
	ErrEngineDisposed = errors.New("fitstream: engine disposed")
	// ErrResourceReleased reports use of a surface after Release.
	ErrResourceReleased = errors.New("fitstream: resource released")
	// ErrUnsupportedTexture reports a texture the backend cannot sample.
	ErrUnsupportedTexture = errors.New("fitstream: unsupported texture")
	// ErrInvalidConfig reports a configuration value outside its domain.
	ErrInvalidConfig = errors.New("fitstream: invalid config")
)
