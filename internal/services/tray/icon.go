package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
)

const iconSize = 32

var (
	iconOnce  sync.Once
	iconBytes []byte
)

// Icon returns the tray icon in the encoding the platform expects.
func Icon() []byte {
	iconOnce.Do(func() {
		iconBytes = encodeIcon(iconPNG())
	})
	return iconBytes
}

// iconPNG draws a power symbol on a transparent background.
func iconPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	fg := color.NRGBA{R: 0x2e, G: 0x9b, B: 0xe6, A: 0xff}

	c := float64(iconSize-1) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			r := math.Hypot(dx, dy)
			ring := r >= 10 && r <= 13.5 && !(dy < 0 && math.Abs(dx) < 5)
			bar := math.Abs(dx) <= 1.5 && dy >= -15 && dy <= 1
			if ring || bar {
				img.SetNRGBA(x, y, fg)
			}
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
