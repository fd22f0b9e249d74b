// Feature negotiation bookkeeping and the extended-display-info stub.
// Grounded on original_source/src/dev/virtio_gpu.c's select_features
// (reads the offered bitmap, ANDs it against a fixed supported mask,
// writes the accepted set back) and its commented-out VIRGL/EDID
// FBIT_SETIF calls, which this driver keeps commented-out in spirit by
// never setting either bit in SupportedFeatures.
package gpu

// SupportedFeatures is the fixed mask this driver ever offers: the empty
// set. original_source negotiates VIRTIO_GPU_F_VIRGL and
// VIRTIO_GPU_F_EDID but never actually turns either on; this 2D-only
// driver does not implement a 3D context or EDID retrieval, so the mask
// stays 0 rather than advertise support it can't back up.
const SupportedFeatures uint64 = 0

// Features records the outcome of feature negotiation, for diagnostics.
// Offered holds the bitmap the bus reported as accepted, and Negotiated is
// that bitmap masked with SupportedFeatures. Bits the device offered beyond
// what was asked for are not recorded. NewDevice keeps the whole record in
// Device.Features.
type Features struct {
	Offered    uint64
	Negotiated uint64
}

// NegotiateFeatures runs the feature-negotiation step of device bring-up:
// it asks bus to accept SupportedFeatures and records the bitmap the bus
// returns (transport.Bus's negotiated-bitmap round trip), both as returned
// and masked with SupportedFeatures. NewDevice calls this directly;
// it is also exported so a caller that wants the bookkeeping without
// redoing bring-up (a diagnostics command, say) can call it again.
func NegotiateFeatures(bus interface {
	NegotiateFeatures(want uint64) (uint64, error)
}) (Features, error) {
	accepted, err := bus.NegotiateFeatures(SupportedFeatures)
	if err != nil {
		return Features{}, err
	}
	return Features{Offered: accepted, Negotiated: accepted & SupportedFeatures}, nil
}

// GetExtendedDisplayInfo would retrieve EDID data for a scanout.
// original_source's distillation explicitly lists extended
// display-descriptor retrieval as a Non-goal; this stub exists so a
// caller gets a typed error instead of the method being silently absent.
func (d *Device) GetExtendedDisplayInfo(scanout uint32) ([]byte, error) {
	return nil, ErrUnsupported
}
