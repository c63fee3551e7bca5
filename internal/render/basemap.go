package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/banshee-data/location.report/internal/fsutil"
)

// LoadBaseMap decodes a PNG, JPEG or TIFF background image.
func LoadBaseMap(fsys fsutil.FileSystem, name string) (image.Image, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding base map %s: %w", name, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("base map %s is empty", name)
	}
	return img, nil
}

// PrepareBaseMap resamples img to cols x rows, replaces every pixel by the
// mean of its RGB channels and applies alpha.
func PrepareBaseMap(img image.Image, rows, cols int, alpha float64) *image.NRGBA {
	rect := image.Rect(0, 0, cols, rows)
	scaled := image.NewRGBA(rect)
	if img.Bounds().Size() == rect.Size() {
		xdraw.Copy(scaled, image.Point{}, img, img.Bounds(), xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(scaled, rect, img, img.Bounds(), xdraw.Src, nil)
	}

	a := uint8(clamp01(alpha)*255 + 0.5)
	out := image.NewNRGBA(rect)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := color.NRGBAModel.Convert(scaled.At(x, y)).(color.NRGBA)
			grey := uint8((uint16(c.R) + uint16(c.G) + uint16(c.B)) / 3)
			out.SetNRGBA(x, y, color.NRGBA{R: grey, G: grey, B: grey, A: a})
		}
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
