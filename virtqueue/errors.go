package virtqueue

import "errors"

var (
	// ErrInvalidQueueSize is returned when NewQueue is asked for a size that
	// is zero or not a power of two (virtio requires queue_size to be a
	// power of two so the ring index wraps with a plain mask).
	ErrInvalidQueueSize = errors.New("virtqueue: queue size must be a nonzero power of two")

	// ErrOutOfDescriptors is returned when Transact needs more free
	// descriptors than the queue currently has. The caller's request is
	// rejected outright; no partial chain is left allocated.
	ErrOutOfDescriptors = errors.New("virtqueue: descriptor table exhausted")

	// ErrNoRequestSegments is returned when Transact is called with zero
	// request segments; every transaction needs at least one device-readable
	// buffer ahead of its device-writable response.
	ErrNoRequestSegments = errors.New("virtqueue: transact needs at least one request segment")
)
