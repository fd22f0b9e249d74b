package gpu

import "testing"

func TestResourceCreate2DMarshalLayout(t *testing.T) {
	buf := make([]byte, resourceCreate2DLen)
	cmd := ResourceCreate2D{
		Hdr:        CtrlHdr{Type: CmdResourceCreate2D, FenceID: 7},
		ResourceID: ScreenRID,
		Format:     FormatR8G8B8A8Unorm,
		Width:      1024,
		Height:     768,
	}
	b := cmd.Marshal(buf)
	hdr := getCtrlHdr(b[0:ctrlHdrLen])
	if hdr.Type != CmdResourceCreate2D || hdr.FenceID != 7 {
		t.Fatalf("header round-trip mismatch: %+v", hdr)
	}
	if got := b[24:28]; len(got) != 4 {
		t.Fatalf("truncated resource id field")
	}
}

func TestSetScanoutMarshalLayout(t *testing.T) {
	buf := make([]byte, setScanoutLen)
	cmd := SetScanout{
		Hdr:        CtrlHdr{Type: CmdSetScanout},
		Rect:       Rect{X: 1, Y: 2, Width: 640, Height: 480},
		ScanoutID:  0,
		ResourceID: ScreenRID,
	}
	b := cmd.Marshal(buf)
	if len(b) != setScanoutLen {
		t.Fatalf("expected %d bytes, got %d", setScanoutLen, len(b))
	}
	rect := getRect(b[24:40])
	if rect != cmd.Rect {
		t.Fatalf("rect round-trip mismatch: got %+v want %+v", rect, cmd.Rect)
	}
}

func TestDecodeDisplayInfoRoundTrip(t *testing.T) {
	want := []DisplayInfo{
		{Rect: Rect{Width: 1920, Height: 1080}, Enabled: true},
	}
	raw := buildDisplayInfoResponse(want)
	_, got, err := DecodeDisplayInfo(raw)
	if err != nil {
		t.Fatalf("DecodeDisplayInfo: %v", err)
	}
	if len(got) != maxScanouts {
		t.Fatalf("expected %d scanout slots, got %d", maxScanouts, len(got))
	}
	if !got[0].Enabled || got[0].Rect != want[0].Rect {
		t.Fatalf("first scanout round-trip mismatch: %+v", got[0])
	}
	for i := 1; i < maxScanouts; i++ {
		if got[i].Enabled {
			t.Fatalf("expected slot %d disabled, got %+v", i, got[i])
		}
	}
}

func TestDecodeNoDataResponseMapsDeviceErrors(t *testing.T) {
	cases := []struct {
		respType uint32
		want     error
	}{
		{RespOKNoData, nil},
		{RespErrOutOfMemory, ErrDeviceOutOfMemory},
		{RespErrInvalidScanout, ErrDeviceInvalidScanout},
		{RespErrInvalidResource, ErrDeviceInvalidResource},
		{RespErrInvalidContext, ErrDeviceInvalidContext},
	}
	for _, c := range cases {
		b := errResp(c.respType)
		if err := DecodeNoDataResponse(b); err != c.want {
			t.Fatalf("respType=0x%x: got %v want %v", c.respType, err, c.want)
		}
	}
}

func TestDecodeNoDataResponseShortBuffer(t *testing.T) {
	if err := DecodeNoDataResponse(make([]byte, 4)); err != ErrShortResponse {
		t.Fatalf("expected ErrShortResponse, got %v", err)
	}
}
