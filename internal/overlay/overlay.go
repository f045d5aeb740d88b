// Package overlay positions dropdowns and popovers anchored to a trigger.
package overlay

import "math"

// Gap separates the popup from its trigger.
const Gap = 4.0

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Right() float64  { return r.X + r.Width }

// Size is a width and height.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Placement is where to draw the popup.
type Placement struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Above bool    `json:"above"`
}

// Place opens the popup below the trigger when it fits there or when there
// is at least as much room below as above; otherwise above. The result is
// clamped to the viewport on both axes.
func Place(trigger Rect, popup Size, viewport Size) Placement {
	below := viewport.Height - trigger.Bottom()
	above := trigger.Y

	p := Placement{X: trigger.X}
	if below >= popup.Height || below >= above {
		p.Y = trigger.Bottom() + Gap
	} else {
		p.Above = true
		p.Y = trigger.Y - Gap - popup.Height
	}

	p.X = clamp(p.X, 0, viewport.Width-popup.Width)
	p.Y = clamp(p.Y, 0, viewport.Height-popup.Height)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// Moved reports whether the trigger shifted by more than a pixel, which
// closes an open popup on scroll.
func Moved(prev, cur Rect) bool {
	return math.Abs(prev.X-cur.X) > 1 || math.Abs(prev.Y-cur.Y) > 1
}

// Contains reports whether the point lies within r. Clicks outside both
// the trigger and the popup close it.
func Contains(r Rect, x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}
