// Package icon draws the app icon programmatically, so no image asset
// has to ship alongside the binary.
package icon

import (
	"image"
	"image/color"
)

var (
	bg = color.RGBA{R: 0x2a, G: 0x4d, B: 0x8f, A: 0xff} // deep blue disc
	fg = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Draw renders a size×size icon: a blue disc carrying a white perch bar
// with a small roost dot above it.
func Draw(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	r := c * 0.92

	barY0 := int(float64(size) * 0.58)
	barY1 := int(float64(size) * 0.68)
	barX0 := int(float64(size) * 0.22)
	barX1 := int(float64(size) * 0.78)

	dotC := float64(size) * 0.5
	dotY := float64(size) * 0.38
	dotR := float64(size) * 0.1

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if dx*dx+dy*dy > r*r {
				continue // transparent outside the disc
			}
			switch {
			case x >= barX0 && x < barX1 && y >= barY0 && y < barY1:
				img.Set(x, y, fg)
			case (float64(x)-dotC)*(float64(x)-dotC)+(float64(y)-dotY)*(float64(y)-dotY) <= dotR*dotR:
				img.Set(x, y, fg)
			default:
				img.Set(x, y, bg)
			}
		}
	}
	return img
}
