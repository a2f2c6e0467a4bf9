// Package geometry provides the coordinate primitives shared by the block
// parser and the page overlay compositor.
package geometry

import "math"

// NormalizedBox is a bounding box as reported by the OCR engine: upper-left
// origin (y pointing down), all values normalized to [0,1] relative to the
// page width and height.
type NormalizedBox struct {
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
}

// BoundingBox is an axis-aligned rectangle on a coordinate system with x
// pointing east and y pointing north, the usual euclidian convention with a
// lower-left origin. Images and OCR output use an upper-left origin instead,
// which is why FromNormalized flips the vertical axis.
type BoundingBox struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

// FromNormalized converts an upper-left-origin {left, top, width, height}
// box into a BoundingBox. Note the "+" in bottom = top + height (instead of
// a "-"): the source y axis points downward.
func FromNormalized(b NormalizedBox) *BoundingBox {
	return &BoundingBox{
		Left:   b.Left,
		Bottom: b.Top + b.Height,
		Right:  b.Left + b.Width,
		Top:    b.Top,
	}
}

// Scale multiplies the box by an x and y factor in place. If yScale is zero
// or negative the box is scaled by xScale in all directions. Callers must
// supply positive finite factors; no validation is performed.
func (b *BoundingBox) Scale(xScale, yScale float64) {
	if yScale <= 0 {
		yScale = xScale
	}
	b.Left *= xScale
	b.Bottom *= yScale
	b.Right *= xScale
	b.Top *= yScale
}

// Width returns the horizontal extent of the box.
func (b *BoundingBox) Width() float64 {
	return math.Abs(b.Right - b.Left)
}

// Height returns the vertical extent of the box.
func (b *BoundingBox) Height() float64 {
	return math.Abs(b.Top - b.Bottom)
}
