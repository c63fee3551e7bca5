package render

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/banshee-data/location.report/internal/fsutil"
	"github.com/banshee-data/location.report/internal/monitoring"
)

// GIFOptions configures EncodeGIF.
type GIFOptions struct {
	MaxHeight int           // taller frames are downscaled, keeping aspect
	Delay     time.Duration // per frame, stored in 10ms units
}

// EncodeGIF reads the PNG files in order and writes them as one looping
// GIF to out.
func EncodeGIF(fsys fsutil.FileSystem, files []string, out string, opts GIFOptions) error {
	if len(files) == 0 {
		return fmt.Errorf("no frames to animate")
	}
	delay := int(opts.Delay / (10 * time.Millisecond))

	anim := &gif.GIF{}
	for _, name := range files {
		monitoring.Logf("appending frame %s to the GIF", filepath.Base(name))
		img, err := readPNG(fsys, name)
		if err != nil {
			return err
		}
		img = downscale(img, opts.MaxHeight)

		b := img.Bounds()
		pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
		xdraw.FloydSteinberg.Draw(pm, pm.Rect, img, b.Min)
		anim.Image = append(anim.Image, pm)
		anim.Delay = append(anim.Delay, delay)
	}

	f, err := fsys.Create(out)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", out, err)
	}
	return f.Close()
}

func readPNG(fsys fsutil.FileSystem, name string) (image.Image, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}

// downscale shrinks img to maxHeight rows when it is taller.
func downscale(img image.Image, maxHeight int) image.Image {
	b := img.Bounds()
	if maxHeight <= 0 || b.Dy() <= maxHeight {
		return img
	}
	factor := float64(b.Dy()) / float64(maxHeight)
	w := int(math.Round(float64(b.Dx()) / factor))
	h := int(math.Round(float64(b.Dy()) / factor))
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), h))
	xdraw.CatmullRom.Scale(dst, dst.Rect, img, b, xdraw.Src, nil)
	return dst
}

// WriteFrameList writes an ffconcat list of the frames, fps frames per
// second, to out. Paths are written relative to the list's directory.
func WriteFrameList(fsys fsutil.FileSystem, files []string, out string, fps float64) error {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	dir := filepath.Dir(out)
	for _, name := range files {
		rel, err := filepath.Rel(dir, name)
		if err != nil {
			rel = name
		}
		fmt.Fprintf(&b, "file '%s'\nduration %g\n", rel, 1/fps)
	}
	return fsys.WriteFile(out, []byte(b.String()), 0o644)
}
