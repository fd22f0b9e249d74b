package gpu

import "errors"

var (
	// ErrShortResponse is returned when a response buffer is smaller than
	// the wire format it is decoded as.
	ErrShortResponse = errors.New("gpu: response buffer shorter than expected")

	// ErrUnexpectedResponseType is returned when a response's header Type
	// is neither the success type the caller expected nor a recognized
	// device error response.
	ErrUnexpectedResponseType = errors.New("gpu: unexpected response type")

	// Device error responses, decoded from the matching VIRTIO_GPU_RESP_ERR_*
	// wire value.
	ErrDeviceOutOfMemory     = errors.New("gpu: device reported out of memory")
	ErrDeviceInvalidScanout  = errors.New("gpu: device reported invalid scanout id")
	ErrDeviceInvalidResource = errors.New("gpu: device reported invalid resource id")
	ErrDeviceInvalidContext  = errors.New("gpu: device reported invalid context id")

	// ErrNoSuchResource is returned by the resource manager when asked to
	// operate on a resource id it has no record of.
	ErrNoSuchResource = errors.New("gpu: no such resource id")

	// ErrResourceAlreadyExists is returned when creating a resource id that
	// is already live.
	ErrResourceAlreadyExists = errors.New("gpu: resource id already in use")

	// ErrNoBackingAttached is returned when a transfer or flush is attempted
	// against a resource with no backing memory bound.
	ErrNoBackingAttached = errors.New("gpu: resource has no backing memory attached")

	// ErrInvalidScanoutIndex is returned when SetMode is asked for a scanout
	// slot the device did not report as enabled.
	ErrInvalidScanoutIndex = errors.New("gpu: scanout index out of range or disabled")

	// ErrTooManyMemEntries is returned when a backing attach call exceeds
	// the command channel's scatter-gather scratch capacity.
	ErrTooManyMemEntries = errors.New("gpu: too many backing memory entries")

	// ErrFeaturesNotAccepted is returned when the device does not confirm
	// FEATURES_OK after negotiation.
	ErrFeaturesNotAccepted = errors.New("gpu: device did not accept FEATURES_OK")

	// ErrUnsupported is returned by operations this driver's design
	// reserves but never drives: text rendering in graphics mode (including
	// the text-surface operations while a graphics mode is active) and
	// anything cursor-related (cursor storage is reserved, per spec
	// Non-goals, but never bound to a scanout). Non-rectangular clipping
	// regions are rejected with fb.ErrUnsupportedClipRegion instead.
	ErrUnsupported = errors.New("gpu: operation not supported by this driver")

	// ErrInvalidArgument is returned for malformed caller input: too few
	// mode slots, an out-of-range coordinate, a nil pointer where one is
	// disallowed.
	ErrInvalidArgument = errors.New("gpu: invalid argument")

	// ErrWrongMode is returned when a graphics-surface operation is
	// attempted in text mode.
	ErrWrongMode = errors.New("gpu: operation not valid in the current mode")

	// ErrAllocationFailed is returned when the framebuffer backing memory
	// for a mode switch cannot be obtained.
	ErrAllocationFailed = errors.New("gpu: framebuffer allocation failed")
)
