// Package raster paints an evaluated scene onto an RGBA image.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/lottietx/scene"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

// Identity is the identity affine matrix.
var Identity = f64.Aff3{1, 0, 0, 0, 1, 0}

type paint struct {
	set   bool
	col   colorful.Color
	alpha float64
	width float64
}

type state struct {
	m      f64.Aff3
	alpha  float64
	fill   paint
	stroke paint
	tint   paint
}

// Canvas is a software scene.Renderer backed by an image.RGBA.
type Canvas struct {
	img     *image.RGBA
	out     *image.RGBA
	quality Quality
	z       *vector.Rasterizer
	base    f64.Aff3
	cur     state
	stack   []state
}

// New creates a Canvas of the given output size. base maps document space
// into output pixels; see Fit. Shapes are rasterised on a surface sized for
// quality q and resampled to the output by Image.
func New(width, height int, base f64.Aff3, q Quality) *Canvas {
	c := new(Canvas)
	c.quality = q
	w, h := workSize(width, height, q)
	c.img = image.NewRGBA(image.Rect(0, 0, w, h))
	c.out = c.img
	if w != width || h != height {
		c.out = image.NewRGBA(image.Rect(0, 0, width, height))
		sx, sy := float64(w)/float64(width), float64(h)/float64(height)
		base = mul(f64.Aff3{sx, 0, 0, 0, sy, 0}, base)
	}
	c.z = vector.NewRasterizer(w, h)
	c.base = base
	c.Clear()
	return c
}

// Quality reports the quality the canvas was created with.
func (c *Canvas) Quality() Quality {
	return c.quality
}

// WorkBounds is the size of the surface shapes are rasterised onto.
func (c *Canvas) WorkBounds() image.Rectangle {
	return c.img.Bounds()
}

// Fit returns the matrix that scales a document of docW by docH onto a
// width by height surface, preserving aspect ratio and centring.
func Fit(docW, docH float64, width, height int) f64.Aff3 {
	if docW <= 0 || docH <= 0 {
		return Identity
	}
	s := math.Min(float64(width)/docW, float64(height)/docH)
	tx := (float64(width) - docW*s) / 2
	ty := (float64(height) - docH*s) / 2
	return f64.Aff3{s, 0, tx, 0, s, ty}
}

// Clear resets the image to transparent and drops any saved state.
func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	c.cur = state{m: c.base, alpha: 1}
	c.stack = c.stack[:0]
}

// Image returns the output image. It is reused by the next pass.
func (c *Canvas) Image() *image.RGBA {
	if c.out != c.img {
		c.quality.resampler().Scale(c.out, c.out.Bounds(), c.img, c.img.Bounds(), draw.Src, nil)
	}
	return c.out
}

// SaveState pushes the current matrix, opacity and paints.
func (c *Canvas) SaveState() {
	c.stack = append(c.stack, c.cur)
}

// RestoreState pops the state pushed by the matching SaveState.
func (c *Canvas) RestoreState() {
	if len(c.stack) == 0 {
		return
	}
	c.cur = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Render applies a single node to the canvas.
func (c *Canvas) Render(n scene.Ref) error {
	switch n.Kind() {
	case scene.KindTransform:
		c.cur.m = mul(c.cur.m, n.Matrix())
		c.cur.alpha *= n.Opacity()
	case scene.KindEffect:
		if n.EffectType() == scene.EffectFill {
			c.cur.tint = paint{set: true, col: n.Color(), alpha: n.Opacity()}
		}
	case scene.KindShape:
		c.shape(n)
	}
	return nil
}

func (c *Canvas) shape(n scene.Ref) {
	switch n.ShapeKind() {
	case scene.ShapeFill:
		c.cur.fill = paint{set: true, col: n.Color(), alpha: n.Opacity()}
	case scene.ShapeStroke:
		c.cur.stroke = paint{set: true, col: n.Color(), alpha: n.Opacity(), width: n.StrokeWidth()}
	case scene.ShapeRect, scene.ShapeEllipse, scene.ShapePath:
		p := n.Path()
		if len(p.Points) < 2 {
			return
		}
		if c.cur.fill.set {
			c.fillPath(p)
		}
		if c.cur.stroke.set && c.cur.stroke.width > 0 {
			c.strokePath(p)
		}
	}
}

func (c *Canvas) fillPath(p scene.Path) {
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	for i, pt := range p.Points {
		x, y := c.apply(pt)
		if i == 0 {
			c.z.MoveTo(x, y)
		} else {
			c.z.LineTo(x, y)
		}
	}
	c.z.ClosePath()
	c.draw(c.cur.fill)
}

// strokePath outlines every segment as a quad and rasterises them in one
// pass, so overlapping joins do not double the coverage.
func (c *Canvas) strokePath(p scene.Path) {
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	half := c.cur.stroke.width * c.scale() / 2

	pts := p.Points
	n := len(pts) - 1
	if p.Closed {
		n = len(pts)
	}
	for i := 0; i < n; i++ {
		ax, ay := c.apply(pts[i])
		bx, by := c.apply(pts[(i+1)%len(pts)])
		dx, dy := float64(bx-ax), float64(by-ay)
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := float32(-dy/l*half), float32(dx/l*half)
		c.z.MoveTo(ax+nx, ay+ny)
		c.z.LineTo(bx+nx, by+ny)
		c.z.LineTo(bx-nx, by-ny)
		c.z.LineTo(ax-nx, ay-ny)
		c.z.ClosePath()
	}
	c.draw(c.cur.stroke)
}

func (c *Canvas) draw(p paint) {
	if c.cur.tint.set {
		p.col, p.alpha = c.cur.tint.col, p.alpha*c.cur.tint.alpha
	}
	a := p.alpha * c.cur.alpha
	if a <= 0 {
		return
	}
	r, g, b := p.col.Clamped().RGB255()
	src := image.NewUniform(color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(math.Min(a, 1) * 255))})
	c.z.DrawOp = draw.Over
	c.z.Draw(c.img, c.img.Bounds(), src, image.Point{})
}

func (c *Canvas) apply(p f64.Vec2) (float32, float32) {
	m := c.cur.m
	return float32(m[0]*p[0] + m[1]*p[1] + m[2]), float32(m[3]*p[0] + m[4]*p[1] + m[5])
}

// scale is the uniform scale factor of the current matrix.
func (c *Canvas) scale() float64 {
	m := c.cur.m
	return math.Sqrt(math.Abs(m[0]*m[4] - m[1]*m[3]))
}

// mul returns a·b, applying b first.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
