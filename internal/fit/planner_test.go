package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledcanvas/internal/models"
)

var (
	panel = models.DisplayProfile{Name: "panel", Width: 32, Height: 16, MaxWidth: 64, MaxHeight: 32}
	wide  = models.DisplayProfile{Name: "wide", Width: 32, Height: 16, MaxWidth: 320, MaxHeight: 320}
)

func noScroll() models.ScrollDirective {
	return models.ScrollDirective{Direction: models.ScrollNone}
}

func scrolling(d models.ScrollDirection) models.ScrollDirective {
	return models.ScrollDirective{Direction: d, Speed: 10}
}

func TestPlan_Static(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		wantW      int
		wantH      int
		wantResize bool
	}{
		{"fits by width and height", 64, 32, 32, 16, true},
		{"fits by height", 32, 64, 8, 16, true},
		{"smaller than display", 10, 10, 10, 10, false},
		{"exact display size", 32, 16, 32, 16, false},
		{"square oversized", 100, 100, 16, 16, true},
		{"square slightly oversized", 40, 40, 16, 16, true},
		{"wide oversized", 1000, 100, 32, 3, true},
		{"extreme wide clamps to one pixel", 10000, 1, 32, 1, true},
		{"extreme tall clamps to one pixel", 1, 10000, 1, 16, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.srcW, tt.srcH, wide, noScroll())
			assert.Equal(t, tt.wantW, got.Width)
			assert.Equal(t, tt.wantH, got.Height)
			assert.Equal(t, tt.wantResize, got.Resize)
		})
	}
}

func TestPlan_StaticNoUpscale(t *testing.T) {
	for w := 1; w <= panel.Width; w++ {
		for h := 1; h <= panel.Height; h++ {
			got := Plan(w, h, panel, noScroll())
			if !assert.Equal(t, Result{Width: w, Height: h}, got, "source %dx%d", w, h) {
				return
			}
		}
	}
}

func TestPlan_StaticAspectAndBounds(t *testing.T) {
	for w := 1; w <= 200; w += 7 {
		for h := 1; h <= 200; h += 11 {
			got := Plan(w, h, panel, noScroll())
			assert.GreaterOrEqual(t, got.Width, 1)
			assert.GreaterOrEqual(t, got.Height, 1)
			assert.LessOrEqual(t, got.Width, max(w, panel.Width))
			assert.LessOrEqual(t, got.Height, max(h, panel.Height))
			if !got.Resize {
				continue
			}
			assert.LessOrEqual(t, got.Width, panel.Width)
			assert.LessOrEqual(t, got.Height, panel.Height)
			// got.Width/got.Height == w/h within one pixel on the dependent axis.
			if got.Width == panel.Width {
				assert.InDelta(t, float64(h)*float64(got.Width)/float64(w), float64(got.Height), 1.0)
			} else {
				assert.InDelta(t, float64(w)*float64(got.Height)/float64(h), float64(got.Width), 1.0)
			}
		}
	}
}

func TestPlan_SpeedZeroCollapsesToStatic(t *testing.T) {
	for _, d := range []models.ScrollDirection{models.ScrollLeft, models.ScrollRight, models.ScrollUp, models.ScrollDown} {
		for _, src := range [][2]int{{100, 100}, {1000, 100}, {10, 300}, {5, 5}} {
			moving := Plan(src[0], src[1], panel, models.ScrollDirective{Direction: d, Speed: 0})
			still := Plan(src[0], src[1], panel, models.ScrollDirective{Direction: models.ScrollNone, Speed: 0})
			assert.Equal(t, still, moving, "direction %s source %v", d, src)
		}
	}

	got := Plan(100, 100, wide, models.ScrollDirective{Direction: models.ScrollLeft})
	assert.Equal(t, Result{Width: 16, Height: 16, Resize: true}, got)
}

func TestPlan_DirectionNoneIgnoresSpeed(t *testing.T) {
	got := Plan(100, 100, wide, models.ScrollDirective{Direction: models.ScrollNone, Speed: 10})
	assert.Equal(t, Result{Width: 16, Height: 16, Resize: true}, got)
}

func TestPlan_HorizontalScroll(t *testing.T) {
	tests := []struct {
		name       string
		display    models.DisplayProfile
		srcW, srcH int
		want       Result
	}{
		{"pins height", wide, 100, 100, Result{16, 16, true}},
		{"short image kept", wide, 100, 10, Result{100, 10, false}},
		{"short and wider than max kept", panel, 500, 10, Result{500, 10, false}},
		{"width capped at max", panel, 1000, 100, Result{64, 6, true}},
		{"width exactly max", panel, 128, 32, Result{64, 16, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan(tt.srcW, tt.srcH, tt.display, scrolling(models.ScrollLeft)))
			assert.Equal(t, tt.want, Plan(tt.srcW, tt.srcH, tt.display, scrolling(models.ScrollRight)))
		})
	}
}

func TestPlan_VerticalScroll(t *testing.T) {
	tests := []struct {
		name       string
		display    models.DisplayProfile
		srcW, srcH int
		want       Result
	}{
		{"pins width", wide, 100, 100, Result{32, 32, true}},
		{"narrow image kept", wide, 10, 100, Result{10, 100, false}},
		{"height capped at max", panel, 100, 1000, Result{3, 32, true}},
		{"height under max", panel, 64, 48, Result{32, 24, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan(tt.srcW, tt.srcH, tt.display, scrolling(models.ScrollUp)))
			assert.Equal(t, tt.want, Plan(tt.srcW, tt.srcH, tt.display, scrolling(models.ScrollDown)))
		})
	}
}

func TestPlan_ScrollFloor(t *testing.T) {
	got := Plan(100000, 17, panel, scrolling(models.ScrollLeft))
	assert.Equal(t, 64, got.Width)
	assert.Equal(t, 1, got.Height)

	got = Plan(33, 100000, panel, scrolling(models.ScrollUp))
	assert.Equal(t, 1, got.Width)
	assert.Equal(t, 32, got.Height)
}
