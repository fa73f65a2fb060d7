package stream

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/pkg/errors"
)

// frameHeader is the size of the wire header preceding the pixels.
const frameHeader = 8

// Frame is a completed surface for one evaluated frame index.
type Frame struct {
	Index      int
	Generation uint64
	Image      *image.RGBA
}

// NewFrame copies img into a new Frame, so the evaluator can reuse its
// canvas for the next pass.
func NewFrame(index int, gen uint64, img *image.RGBA) *Frame {
	f := new(Frame)
	f.Index = index
	f.Generation = gen
	f.Image = image.NewRGBA(img.Bounds())
	copy(f.Image.Pix, img.Pix)
	return f
}

// MarshalBinary converts a Frame into the stream wire format: little-endian
// uint16 width, uint16 height, uint32 frame index, then one RGB triple per
// pixel in row order. Alpha is dropped; pixels are premultiplied onto black.
// Negative frame indices cannot be encoded.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	b := f.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > math.MaxUint16 || h > math.MaxUint16 {
		return nil, errors.Errorf("frame %dx%d too large for wire format", w, h)
	}
	if f.Index < 0 || int64(f.Index) > math.MaxUint32 {
		return nil, errors.Errorf("frame index %d not representable in wire format", f.Index)
	}

	data = make([]byte, frameHeader, frameHeader+w*h*3)
	binary.LittleEndian.PutUint16(data[0:], uint16(w))
	binary.LittleEndian.PutUint16(data[2:], uint16(h))
	binary.LittleEndian.PutUint32(data[4:], uint32(f.Index))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := f.Image.RGBAAt(x, y)
			data = append(data, p.R, p.G, p.B)
		}
	}

	return data, nil
}
