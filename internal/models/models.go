// internal/models/models.go
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ScrollDirection string

const (
	ScrollNone  ScrollDirection = "none"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
)

// ParseScrollDirection accepts an empty string as "none".
func ParseScrollDirection(s string) (ScrollDirection, error) {
	d := ScrollDirection(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case "":
		return ScrollNone, nil
	case ScrollNone, ScrollLeft, ScrollRight, ScrollUp, ScrollDown:
		return d, nil
	}
	return "", fmt.Errorf("unknown scroll direction %q", s)
}

func (d ScrollDirection) Horizontal() bool {
	return d == ScrollLeft || d == ScrollRight
}

func (d ScrollDirection) Vertical() bool {
	return d == ScrollUp || d == ScrollDown
}

// DisplayProfile describes a target LED matrix. Width/Height are the visible
// window, MaxWidth/MaxHeight bound the scrollable canvas.
type DisplayProfile struct {
	Name      string `yaml:"name" json:"name"`
	Width     int    `yaml:"width" json:"width"`
	Height    int    `yaml:"height" json:"height"`
	MaxWidth  int    `yaml:"max_width" json:"max_width"`
	MaxHeight int    `yaml:"max_height" json:"max_height"`
}

func (p DisplayProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: display name required", ErrConfiguration)
	}
	if p.Width <= 0 || p.Height <= 0 || p.MaxWidth <= 0 || p.MaxHeight <= 0 {
		return fmt.Errorf("%w: display %q: dimensions must be positive", ErrConfiguration, p.Name)
	}
	if p.MaxWidth < p.Width || p.MaxHeight < p.Height {
		return fmt.Errorf("%w: display %q: max size %dx%d smaller than %dx%d",
			ErrConfiguration, p.Name, p.MaxWidth, p.MaxHeight, p.Width, p.Height)
	}
	return nil
}

type ScrollDirective struct {
	Direction ScrollDirection
	Speed     int
}

// Effective collapses a zero speed into a static directive.
func (s ScrollDirective) Effective() ScrollDirective {
	if s.Speed <= 0 || s.Direction == "" {
		return ScrollDirective{Direction: ScrollNone}
	}
	return s
}

// ArtifactOptions is the optional metadata stored alongside an artifact.
// The zero value means no display name, no scrolling.
type ArtifactOptions struct {
	DisplayName     *string
	ScrollDirection ScrollDirection
	ScrollSpeed     int
}

func (o ArtifactOptions) Scroll() ScrollDirective {
	d := o.ScrollDirection
	if d == "" {
		d = ScrollNone
	}
	return ScrollDirective{Direction: d, Speed: o.ScrollSpeed}
}

type Artifact struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Filename        string          `db:"filename" json:"filename"`
	OwnerID         int64           `db:"owner_id" json:"owner_id"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	Width           int             `db:"width" json:"width"`
	Height          int             `db:"height" json:"height"`
	DisplayName     *string         `db:"display_name" json:"display_name"`
	ScrollDirection ScrollDirection `db:"scroll_direction" json:"scroll_direction"`
	ScrollSpeed     int             `db:"scroll_speed" json:"scroll_speed"`
}
