// Package thumbnail renders the preview image stored in the THUMBNAILIMAGE
// section of a drawing.
//
// Model space is flattened with the geom package, scaled to fit the image
// and stroked with an anti-aliasing rasterizer. The result is encoded as
// a Windows bitmap, the format DXF readers expect in that section.
package thumbnail

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/vector"

	"github.com/tsawler/dxf/geom"
	"github.com/tsawler/dxf/model"
)

// fileHeaderSize is the size of the BITMAPFILEHEADER that precedes the
// device independent bitmap in a .bmp file.
const fileHeaderSize = 14

// Options controls the rendered image.
type Options struct {
	Width, Height int
	Margin        int     // Pixels left empty on each side
	LineWidth     float64 // Stroke width in pixels
	Background    color.Color
	Foreground    color.Color

	// Supersample renders at this multiple of the size and reduces the
	// result with a Lanczos filter. 0 and 1 render directly.
	Supersample int
}

// DefaultOptions returns a 180x180 image with dark lines on white.
func DefaultOptions() Options {
	return Options{
		Width:      180,
		Height:     180,
		Margin:     4,
		LineWidth:  1,
		Background: color.White,
		Foreground: color.Black,
	}
}

// Render draws the model space of table. Entities on layers that are off
// or frozen are skipped. An empty drawing gives a blank image.
func Render(table *model.EntityTable, opts Options) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", opts.Width, opts.Height)
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.Foreground == nil {
		opts.Foreground = color.Black
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	f := geom.NewFlattener(table)
	f.SkipLayer = func(l *model.Layer) bool { return l.Off || l.Frozen() }
	path := f.ModelSpace()
	box := path.Bounds()
	if box.IsEmpty() {
		return dst, nil
	}

	m := fit(box, opts)
	z := vector.NewRasterizer(opts.Width, opts.Height)
	half := opts.LineWidth / 2
	for _, sub := range path.Subpaths() {
		if len(sub) == 1 {
			stroke(z, m.Transform(sub[0]), m.Transform(sub[0]), half)
			continue
		}
		for i := 1; i < len(sub); i++ {
			stroke(z, m.Transform(sub[i-1]), m.Transform(sub[i]), half)
		}
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(opts.Foreground), image.Point{})
	return dst, nil
}

// fit maps drawing coordinates into the image, keeping the aspect ratio
// and flipping the Y axis.
func fit(box geom.BBox, opts Options) geom.Matrix {
	w := float64(opts.Width - 2*opts.Margin)
	h := float64(opts.Height - 2*opts.Margin)
	scale := 1.0
	switch {
	case box.Width() > 0 && box.Height() > 0:
		scale = math.Min(w/box.Width(), h/box.Height())
	case box.Width() > 0:
		scale = w / box.Width()
	case box.Height() > 0:
		scale = h / box.Height()
	}
	c := box.Center()
	return geom.Translate(-c.X, -c.Y).
		Multiply(geom.Scale(scale, -scale)).
		Multiply(geom.Translate(float64(opts.Width)/2, float64(opts.Height)/2))
}

// stroke adds a segment as a rectangle of half width hw. A zero length
// segment becomes a square dot.
func stroke(z *vector.Rasterizer, p, q geom.Point, hw float64) {
	dx, dy := q.X-p.X, q.Y-p.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		dx, dy, l = 1, 0, 1
		p.X -= hw
		q.X += hw
	}
	nx, ny := -dy/l*hw, dx/l*hw
	z.MoveTo(float32(p.X+nx), float32(p.Y+ny))
	z.LineTo(float32(q.X+nx), float32(q.Y+ny))
	z.LineTo(float32(q.X-nx), float32(q.Y-ny))
	z.LineTo(float32(p.X-nx), float32(p.Y-ny))
	z.ClosePath()
}

// Image renders table, supersampled when opts asks for it.
func Image(table *model.EntityTable, opts Options) (image.Image, error) {
	n := opts.Supersample
	if n <= 1 {
		img, err := Render(table, opts)
		if err != nil {
			return nil, err
		}
		return img, nil
	}

	big := opts
	big.Width, big.Height, big.Margin = opts.Width*n, opts.Height*n, opts.Margin*n
	big.LineWidth = max(opts.LineWidth, 1) * float64(n)
	img, err := Render(table, big)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, opts.Width, opts.Height, imaging.Lanczos), nil
}

// Save renders table into an image file. The format follows the extension
// of path: .png, .jpg, .gif, .tif or .bmp.
func Save(table *model.EntityTable, path string, opts Options) error {
	img, err := Image(table, opts)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

// BMP renders table and encodes it as a .bmp file.
func BMP(table *model.EntityTable, opts Options) ([]byte, error) {
	img, err := Image(table, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode bitmap: %w", err)
	}
	return buf.Bytes(), nil
}

// DIB renders table as a device independent bitmap, the .bmp file
// without its file header, as stored in THUMBNAILIMAGE.
func DIB(table *model.EntityTable, opts Options) ([]byte, error) {
	data, err := BMP(table, opts)
	if err != nil {
		return nil, err
	}
	return data[fileHeaderSize:], nil
}

// Decode reads a thumbnail. Both .bmp files and bare device independent
// bitmaps are accepted.
func Decode(data []byte) (image.Image, error) {
	if len(data) >= 2 && data[0] == 'B' && data[1] == 'M' {
		return bmp.Decode(bytes.NewReader(data))
	}
	file, err := withFileHeader(data)
	if err != nil {
		return nil, err
	}
	return bmp.Decode(bytes.NewReader(file))
}

// withFileHeader prepends a BITMAPFILEHEADER to a DIB. The pixel offset
// follows the info header and the color table.
func withFileHeader(dib []byte) ([]byte, error) {
	if len(dib) < 40 {
		return nil, fmt.Errorf("bitmap too short: %d bytes", len(dib))
	}
	headerSize := binary.LittleEndian.Uint32(dib[0:4])
	bitCount := binary.LittleEndian.Uint16(dib[14:16])
	colors := binary.LittleEndian.Uint32(dib[32:36])
	if colors == 0 && bitCount <= 8 {
		colors = 1 << bitCount
	}
	offset := fileHeaderSize + headerSize + 4*colors

	file := make([]byte, fileHeaderSize, fileHeaderSize+len(dib))
	file[0], file[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(file[2:6], uint32(fileHeaderSize+len(dib)))
	binary.LittleEndian.PutUint32(file[10:14], offset)
	return append(file, dib...), nil
}
