// internal/game/normalize.go
//
// Coordinate normalization between screen space and scene space.
// A click lands somewhere inside the rendered image's bounding rectangle;
// the backend only understands fractional coordinates in [0,1]×[0,1], so
// the pixel position is divided out by the rect dimensions. The inverse
// transform places found-character markers at any display size.

package game

// Rect is the on-screen rectangle of the rendered scene image at the
// moment of a click, in the same pixel space as the pointer position.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// valid reports whether the rect can normalize a click. A zero-area rect
// means the image is not laid out yet and the click must be ignored.
func (r Rect) valid() bool { return r.Width > 0 && r.Height > 0 }

// Normalize converts a pointer position into fractional scene coordinates.
// No rounding is applied; full float precision is preserved so that
// Denormalize round-trips losslessly while the layout keeps the image
// aspect ratio. ok is false when the rect has no usable dimensions.
func Normalize(pointerX, pointerY float64, r Rect) (nx, ny float64, ok bool) {
	if !r.valid() {
		return 0, 0, false
	}
	return (pointerX - r.Left) / r.Width, (pointerY - r.Top) / r.Height, true
}

// Denormalize maps fractional scene coordinates back to pixel offsets
// relative to the rect origin. Used for marker placement.
func Denormalize(nx, ny float64, r Rect) (px, py float64) {
	return nx * r.Width, ny * r.Height
}
