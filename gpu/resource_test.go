package gpu

import (
	"testing"

	"github.com/iansmith/mazvgpu/internal/dma"
)

func TestResourceLifecycle(t *testing.T) {
	dev, _, _ := newTestDevice(t, nil)

	if err := dev.Resources.Create(ScreenRID, FormatR8G8B8A8Unorm, 100, 50); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := dev.Resources.Create(ScreenRID, FormatR8G8B8A8Unorm, 100, 50); err != ErrResourceAlreadyExists {
		t.Fatalf("expected ErrResourceAlreadyExists, got %v", err)
	}

	backing := dma.Alloc(100*50*4, 8)
	if err := dev.Resources.AttachBacking(ScreenRID, backing); err != nil {
		t.Fatalf("AttachBacking: %v", err)
	}
	if dev.Resources.BackingOf(ScreenRID) != backing {
		t.Fatalf("expected BackingOf to return the attached region")
	}

	if err := dev.Resources.DetachBacking(ScreenRID); err != nil {
		t.Fatalf("DetachBacking: %v", err)
	}
	if dev.Resources.BackingOf(ScreenRID) != nil {
		t.Fatalf("expected no backing after DetachBacking")
	}

	if err := dev.Resources.Destroy(ScreenRID); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if dev.Resources.Has(ScreenRID) {
		t.Fatalf("expected resource to be gone after Destroy")
	}
}

func TestResourceOperationsOnUnknownID(t *testing.T) {
	dev, _, _ := newTestDevice(t, nil)
	if err := dev.Resources.AttachBacking(99, nil); err != ErrNoSuchResource {
		t.Fatalf("expected ErrNoSuchResource, got %v", err)
	}
	if err := dev.Resources.DetachBacking(99); err != ErrNoSuchResource {
		t.Fatalf("expected ErrNoSuchResource, got %v", err)
	}
	if err := dev.Resources.Destroy(99); err != ErrNoSuchResource {
		t.Fatalf("expected ErrNoSuchResource, got %v", err)
	}
}

func TestDestroyDetachesBackingFirst(t *testing.T) {
	dev, _, _ := newTestDevice(t, nil)
	if err := dev.Resources.Create(ScreenRID, FormatR8G8B8A8Unorm, 4, 4); err != nil {
		t.Fatalf("Create: %v", err)
	}
	backing := dma.Alloc(4*4*4, 8)
	if err := dev.Resources.AttachBacking(ScreenRID, backing); err != nil {
		t.Fatalf("AttachBacking: %v", err)
	}
	if err := dev.Resources.Destroy(ScreenRID); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if dev.Resources.Has(ScreenRID) {
		t.Fatalf("expected resource gone after Destroy")
	}
}
