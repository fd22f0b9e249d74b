package gpu

import "github.com/iansmith/mazvgpu/internal/dma"

// Reserved resource ids: ScreenRID is the single resource this driver ever
// creates for the visible framebuffer, CursorRID is reserved by the wire
// protocol for a hardware cursor plane this driver never uses.
const (
	ScreenRID uint32 = 42
	CursorRID uint32 = 23
)

// resourceRecord tracks one live RESOURCE_CREATE_2D allocation: its declared
// geometry/format and whatever backing memory is currently attached to it.
type resourceRecord struct {
	Format  uint32
	Width   uint32
	Height  uint32
	Backing *dma.Region
}

// ResourceManager owns the create/attach/detach/destroy lifecycle for every
// resource id this driver allocates on the device, grounded on
// mazboot/golang/main/virtio_gpu.go's virtioGPUSetupFramebuffer (create →
// attach → set_scanout) generalized from its single hard-coded call site
// into a reusable per-id state table.
type ResourceManager struct {
	ch        *channel
	resources map[uint32]*resourceRecord
}

func newResourceManager(ch *channel) *ResourceManager {
	return &ResourceManager{ch: ch, resources: make(map[uint32]*resourceRecord)}
}

// Create issues RESOURCE_CREATE_2D for id with the given format and
// dimensions and records it. Returns ErrResourceAlreadyExists if id is
// already live — the device itself would also refuse this, but catching it
// locally avoids a round trip.
func (m *ResourceManager) Create(id uint32, format, width, height uint32) error {
	if _, exists := m.resources[id]; exists {
		return ErrResourceAlreadyExists
	}
	cmd := ResourceCreate2D{
		Hdr:        CtrlHdr{Type: CmdResourceCreate2D},
		ResourceID: id,
		Format:     format,
		Width:      width,
		Height:     height,
	}
	if err := m.ch.sendNoData(cmd.Marshal); err != nil {
		return err
	}
	m.resources[id] = &resourceRecord{Format: format, Width: width, Height: height}
	return nil
}

// AttachBacking binds backing as id's guest memory, via a single scatter-
// gather entry spanning the whole region: one resource, one contiguous
// backing allocation.
func (m *ResourceManager) AttachBacking(id uint32, backing *dma.Region) error {
	rec, ok := m.resources[id]
	if !ok {
		return ErrNoSuchResource
	}
	hdr := ResourceAttachBacking{
		Hdr:        CtrlHdr{Type: CmdResourceAttachBacking},
		ResourceID: id,
		NrEntries:  1,
	}
	entries := []MemEntry{{Addr: backing.Addr, Length: uint32(len(backing.Buf))}}
	if err := m.ch.sendAttachBacking(hdr, entries); err != nil {
		return err
	}
	rec.Backing = backing
	return nil
}

// DetachBacking unbinds whatever backing memory id currently has. It is a
// no-op error-wise if nothing is attached, matching RESOURCE_DETACH_BACKING's
// own idempotence on the wire.
func (m *ResourceManager) DetachBacking(id uint32) error {
	rec, ok := m.resources[id]
	if !ok {
		return ErrNoSuchResource
	}
	cmd := ResourceDetachBacking{Hdr: CtrlHdr{Type: CmdResourceDetachBacking}, ResourceID: id}
	if err := m.ch.sendNoData(cmd.Marshal); err != nil {
		return err
	}
	rec.Backing = nil
	return nil
}

// Destroy detaches any backing still attached, issues RESOURCE_UNREF, and
// forgets id. Detaching first mirrors the rollback path in gpu.ModeManager's
// SetMode: a resource must give up its backing before the device will
// actually reclaim it.
func (m *ResourceManager) Destroy(id uint32) error {
	rec, ok := m.resources[id]
	if !ok {
		return ErrNoSuchResource
	}
	if rec.Backing != nil {
		if err := m.DetachBacking(id); err != nil {
			return err
		}
	}
	cmd := ResourceUnref{Hdr: CtrlHdr{Type: CmdResourceUnref}, ResourceID: id}
	if err := m.ch.sendNoData(cmd.Marshal); err != nil {
		return err
	}
	delete(m.resources, id)
	return nil
}

// Has reports whether id currently names a live resource.
func (m *ResourceManager) Has(id uint32) bool {
	_, ok := m.resources[id]
	return ok
}

// BackingOf returns the DMA region currently attached to id, or nil if none
// is attached or id does not exist.
func (m *ResourceManager) BackingOf(id uint32) *dma.Region {
	rec, ok := m.resources[id]
	if !ok {
		return nil
	}
	return rec.Backing
}
