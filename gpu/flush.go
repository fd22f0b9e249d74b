package gpu

// FlushPipeline runs the two-step sequence that gets framebuffer pixels
// from guest backing memory onto the screen: TRANSFER_TO_HOST_2D copies the
// dirty rect into the host-side resource, then RESOURCE_FLUSH tells the
// device to present it. Grounded on
// mazboot/golang/main/virtio_gpu.go:virtioGPUTransferToHost and the
// RESOURCE_FLUSH call that follows it at the same call site.
type FlushPipeline struct {
	ch    *channel
	modes *ModeManager
}

func newFlushPipeline(ch *channel, modes *ModeManager) *FlushPipeline {
	return &FlushPipeline{ch: ch, modes: modes}
}

// Flush runs transfer+flush over rect against the screen resource. In text
// mode there is no scanout-bound resource, so this is a no-op: callers do
// not need to check Current() themselves before every draw.
func (f *FlushPipeline) Flush(rect Rect) error {
	if f.modes.Current() == 0 {
		return nil
	}
	if f.modes.resources.BackingOf(ScreenRID) == nil {
		return ErrNoBackingAttached
	}
	transfer := TransferToHost2D{
		Hdr:        CtrlHdr{Type: CmdTransferToHost2D},
		Rect:       rect,
		ResourceID: ScreenRID,
	}
	if err := f.ch.sendNoData(transfer.Marshal); err != nil {
		return err
	}
	flush := ResourceFlush{
		Hdr:        CtrlHdr{Type: CmdResourceFlush},
		Rect:       rect,
		ResourceID: ScreenRID,
	}
	return f.ch.sendNoData(flush.Marshal)
}
