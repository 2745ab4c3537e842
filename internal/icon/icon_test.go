package icon

import "testing"

func TestDrawBounds(t *testing.T) {
	img := Draw(64)
	b := img.Bounds()
	if b.Dx() != 64 || b.Dy() != 64 {
		t.Errorf("bounds = %v, want 64x64", b)
	}
}

func TestDrawCornersTransparent(t *testing.T) {
	img := Draw(64)
	_, _, _, a := img.At(0, 0).RGBA()
	if a != 0 {
		t.Error("corner should be transparent outside the disc")
	}
}

func TestDrawCenterOpaque(t *testing.T) {
	img := Draw(64)
	_, _, _, a := img.At(32, 32).RGBA()
	if a == 0 {
		t.Error("center should be opaque")
	}
}
