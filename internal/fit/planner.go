// Package fit computes the output size of an image for a display profile.
//
// Two modes exist. Static fit scales an oversized image down uniformly until
// it sits inside the display's visible window. Scrolling fit pins one axis to
// the display (height for left/right, width for up/down) and lets the other
// run up to the profile's max size. Images are never upscaled.
//
// A dependent axis is always computed as src*fixed/srcOther in float64 and
// truncated toward zero, so results are reproducible across implementations.
package fit

import "ledcanvas/internal/models"

// Result is the planned output size. Resize is false when the size equals the
// source, in which case callers must keep the source image as is.
type Result struct {
	Width  int
	Height int
	Resize bool
}

// Plan never fails: inputs are expected to be validated (positive source size,
// validated profile) and degenerate outputs are clamped to 1x1.
func Plan(srcW, srcH int, display models.DisplayProfile, scroll models.ScrollDirective) Result {
	var w, h int
	s := scroll.Effective()
	switch {
	case s.Direction.Horizontal():
		w, h = scrollHorizontal(srcW, srcH, display)
	case s.Direction.Vertical():
		w, h = scrollVertical(srcW, srcH, display)
	default:
		w, h = static(srcW, srcH, display)
	}

	w, h = max(w, 1), max(h, 1)
	return Result{Width: w, Height: h, Resize: w != srcW || h != srcH}
}

func static(srcW, srcH int, d models.DisplayProfile) (int, int) {
	if srcW <= d.Width && srcH <= d.Height {
		return srcW, srcH
	}

	// Compare d.Width/srcW against d.Height/srcH without division.
	byWidth := int64(d.Width) * int64(srcH)
	byHeight := int64(d.Height) * int64(srcW)
	switch {
	case byWidth < byHeight:
		return d.Width, scale(srcH, d.Width, srcW)
	case byHeight < byWidth:
		return scale(srcW, d.Height, srcH), d.Height
	default:
		return d.Width, d.Height
	}
}

func scrollHorizontal(srcW, srcH int, d models.DisplayProfile) (int, int) {
	if srcH <= d.Height {
		return srcW, srcH
	}
	w, h := scale(srcW, d.Height, srcH), d.Height
	if w > d.MaxWidth {
		w, h = d.MaxWidth, scale(srcH, d.MaxWidth, srcW)
	}
	return w, h
}

func scrollVertical(srcW, srcH int, d models.DisplayProfile) (int, int) {
	if srcW <= d.Width {
		return srcW, srcH
	}
	w, h := d.Width, scale(srcH, d.Width, srcW)
	if h > d.MaxHeight {
		w, h = scale(srcW, d.MaxHeight, srcH), d.MaxHeight
	}
	return w, h
}

// scale returns trunc(v * fixed / ref).
func scale(v, fixed, ref int) int {
	return int(float64(v) * float64(fixed) / float64(ref))
}
