// Package ocr holds the geometric primitives and shared data types used
// throughout the OCR pipeline: rectangles, matrices, quads, the coverage
// mask, and the line/word/block types produced by the later pipeline
// stages. Sub-packages (bbox, normalize, clean, reqbuild, ocrprovider,
// respparse, geomxform, cliptile, lineselect, readingorder, overlay) all
// build on these types instead of redefining them.
package ocr

import "math"

// Point is a 2-D point in PDF page space. The origin is the top-left of the
// page; y increases downward.
type Point struct {
	X, Y float64
}

// Add returns p+o.
func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }

// Sub returns p-o.
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

// Distance returns the Euclidean distance between p and o.
func (p Point) Distance(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Transform applies an affine matrix to p.
func (p Point) Transform(m Matrix) Point {
	return Point{
		X: p.X*m.A + p.Y*m.C + m.E,
		Y: p.X*m.B + p.Y*m.D + m.F,
	}
}

// Rectangle is an axis-aligned rectangle, normalized so that X0<=X1 and
// Y0<=Y1.
type Rectangle struct {
	X0, Y0, X1, Y1 float64
}

// NewRectangle builds a Rectangle, normalizing corner order.
func NewRectangle(x0, y0, x1, y1 float64) Rectangle {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Rectangle{x0, y0, x1, y1}
}

// Width returns the rectangle's width.
func (r Rectangle) Width() float64 { return r.X1 - r.X0 }

// Height returns the rectangle's height.
func (r Rectangle) Height() float64 { return r.Y1 - r.Y0 }

// Area returns the rectangle's area, 0 for an empty or degenerate rectangle.
func (r Rectangle) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Width() * r.Height()
}

// IsEmpty reports whether the rectangle has zero or negative extent in
// either axis.
func (r Rectangle) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// TopLeft returns the rectangle's top-left corner.
func (r Rectangle) TopLeft() Point { return Point{r.X0, r.Y0} }

// TopRight returns the rectangle's top-right corner.
func (r Rectangle) TopRight() Point { return Point{r.X1, r.Y0} }

// BottomLeft returns the rectangle's bottom-left corner.
func (r Rectangle) BottomLeft() Point { return Point{r.X0, r.Y1} }

// BottomRight returns the rectangle's bottom-right corner.
func (r Rectangle) BottomRight() Point { return Point{r.X1, r.Y1} }

// Center returns the rectangle's center point.
func (r Rectangle) Center() Point {
	return Point{(r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2}
}

// Contains reports whether o is fully contained in r.
func (r Rectangle) Contains(o Rectangle) bool {
	return r.X0 <= o.X0 && r.Y0 <= o.Y0 && r.X1 >= o.X1 && r.Y1 >= o.Y1
}

// ContainsPoint reports whether p lies within r (inclusive of the border).
func (r Rectangle) ContainsPoint(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Intersects reports whether r and o overlap with positive area.
func (r Rectangle) Intersects(o Rectangle) bool {
	return !r.Intersection(o).IsEmpty()
}

// Intersection returns the overlapping region of r and o; empty if disjoint.
func (r Rectangle) Intersection(o Rectangle) Rectangle {
	x0 := math.Max(r.X0, o.X0)
	y0 := math.Max(r.Y0, o.Y0)
	x1 := math.Min(r.X1, o.X1)
	y1 := math.Min(r.Y1, o.Y1)
	if x1 <= x0 || y1 <= y0 {
		return Rectangle{}
	}
	return Rectangle{x0, y0, x1, y1}
}

// Union returns the smallest rectangle containing both r and o.
func (r Rectangle) Union(o Rectangle) Rectangle {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rectangle{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Transform applies an affine matrix to every corner and returns the
// resulting axis-aligned bounding rectangle. For a non-axis-aligned matrix,
// use Quad instead to preserve the rotated shape.
func (r Rectangle) Transform(m Matrix) Rectangle {
	corners := [4]Point{r.TopLeft(), r.TopRight(), r.BottomLeft(), r.BottomRight()}
	out := Rectangle{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, c := range corners {
		t := c.Transform(m)
		out.X0 = math.Min(out.X0, t.X)
		out.Y0 = math.Min(out.Y0, t.Y)
		out.X1 = math.Max(out.X1, t.X)
		out.Y1 = math.Max(out.Y1, t.Y)
	}
	return out
}

// Matrix is a 2x3 affine transform:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity matrix.
func Identity() Matrix { return Matrix{A: 1, D: 1} }

// Scale returns a matrix scaling by (sx, sy).
func Scale(sx, sy float64) Matrix { return Matrix{A: sx, D: sy} }

// Translate returns a matrix translating by (tx, ty).
func Translate(tx, ty float64) Matrix { return Matrix{A: 1, D: 1, E: tx, F: ty} }

// Rotate returns a matrix rotating by degrees, counter-clockwise about the
// origin in a y-down coordinate system (positive degrees appear clockwise
// on screen, matching the PDF toolkit convention this pipeline derotates
// against).
func Rotate(degrees float64) Matrix {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	return Matrix{A: cos, B: sin, C: -sin, D: cos}
}

// Multiply composes m then o: applying the result to a point is the same as
// applying m first, then o.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		A: m.A*o.A + m.B*o.C,
		B: m.A*o.B + m.B*o.D,
		C: m.C*o.A + m.D*o.C,
		D: m.C*o.B + m.D*o.D,
		E: m.E*o.A + m.F*o.C + o.E,
		F: m.E*o.B + m.F*o.D + o.F,
	}
}

// Inverse returns the inverse transform. Returns the identity matrix if m is
// singular (determinant ~0).
func (m Matrix) Inverse() Matrix {
	det := m.A*m.D - m.B*m.C
	if math.Abs(det) < 1e-12 {
		return Identity()
	}
	invDet := 1 / det
	a := m.D * invDet
	b := -m.B * invDet
	c := -m.C * invDet
	d := m.A * invDet
	e := -(m.E*a + m.F*c)
	f := -(m.E*b + m.F*d)
	return Matrix{A: a, B: b, C: c, D: d, E: e, F: f}
}

// RectToRect returns the matrix mapping the unit-ish rectangle `from` onto
// `to`, preserving axis alignment. Used for the clip-rect-to-page-space
// transform (Rect(0,0,1,1) -> clip_rect).
func RectToRect(from, to Rectangle) Matrix {
	sx := 1.0
	sy := 1.0
	if from.Width() != 0 {
		sx = to.Width() / from.Width()
	}
	if from.Height() != 0 {
		sy = to.Height() / from.Height()
	}
	// translate `from` to the origin, scale, then translate to `to`.
	return Matrix{A: sx, D: sy, E: to.X0 - from.X0*sx, F: to.Y0 - from.Y0*sy}
}

// Quad is a quadrilateral given by its four corners in the order top-left,
// top-right, bottom-left, bottom-right. Produced by multiplying a Rectangle
// by a non-axis-aligned matrix.
type Quad struct {
	TopLeft, TopRight, BottomLeft, BottomRight Point
}

// RectangleQuad returns the (axis-aligned) quad for r.
func RectangleQuad(r Rectangle) Quad {
	return Quad{
		TopLeft:     r.TopLeft(),
		TopRight:    r.TopRight(),
		BottomLeft:  r.BottomLeft(),
		BottomRight: r.BottomRight(),
	}
}

// Transform applies m to every corner of q.
func (q Quad) Transform(m Matrix) Quad {
	return Quad{
		TopLeft:     q.TopLeft.Transform(m),
		TopRight:    q.TopRight.Transform(m),
		BottomLeft:  q.BottomLeft.Transform(m),
		BottomRight: q.BottomRight.Transform(m),
	}
}

// BoundingRect returns the axis-aligned bounding rectangle of q's corners.
func (q Quad) BoundingRect() Rectangle {
	xs := [4]float64{q.TopLeft.X, q.TopRight.X, q.BottomLeft.X, q.BottomRight.X}
	ys := [4]float64{q.TopLeft.Y, q.TopRight.Y, q.BottomLeft.Y, q.BottomRight.Y}
	r := Rectangle{X0: xs[0], Y0: ys[0], X1: xs[0], Y1: ys[0]}
	for i := 1; i < 4; i++ {
		r.X0 = math.Min(r.X0, xs[i])
		r.Y0 = math.Min(r.Y0, ys[i])
		r.X1 = math.Max(r.X1, xs[i])
		r.Y1 = math.Max(r.Y1, ys[i])
	}
	return r
}

// MorphAbout rotates q about the given origin by the rotation embedded in m
// (m is expected to be a pure rotation matrix, e.g. from Rotate). This
// mirrors the PDF toolkit's "morph" operation used to derotate quads around
// the page's bottom-left corner.
func (q Quad) MorphAbout(origin Point, m Matrix) Quad {
	shift := func(p Point) Point {
		local := p.Sub(origin)
		rotated := local.Transform(m)
		return rotated.Add(origin)
	}
	return Quad{
		TopLeft:     shift(q.TopLeft),
		TopRight:    shift(q.TopRight),
		BottomLeft:  shift(q.BottomLeft),
		BottomRight: shift(q.BottomRight),
	}
}
