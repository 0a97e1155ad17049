package render

import (
	"bytes"
	"fmt"
	"image/color"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/latticeglyph/internal/geometry"
)

// Style is presentation-only configuration. It never affects encoding,
// decoding or digests.
type Style struct {
	Stroke      string  `yaml:"stroke" json:"stroke"`
	StrokeWidth float64 `yaml:"stroke_width" json:"stroke_width"`
	Background  string  `yaml:"background" json:"background"`
	Nodes       bool    `yaml:"nodes" json:"nodes"`
	NodeColor   string  `yaml:"node_color" json:"node_color"`
	NodeRadius  float64 `yaml:"node_radius" json:"node_radius"`
	Grid        bool    `yaml:"grid" json:"grid"`
	GridColor   string  `yaml:"grid_color" json:"grid_color"`
	// CapLength is the end cap length in viewport units.
	CapLength float64 `yaml:"cap_length" json:"cap_length"`
	// Padding is the viewport padding fraction on every side.
	Padding float64 `yaml:"padding" json:"padding"`
}

// DefaultStyle is a black 2-unit stroke on a transparent background.
func DefaultStyle() Style {
	return Style{
		Stroke:      "#000000",
		StrokeWidth: 2,
		Background:  "none",
		NodeColor:   "#000000",
		NodeRadius:  1.5,
		GridColor:   "#cccccc",
		CapLength:   6,
		Padding:     geometry.DefaultViewport().Padding,
	}
}

// Viewport returns the viewport the style renders into.
func (s Style) Viewport() geometry.Viewport {
	return geometry.Viewport{Size: geometry.DefaultViewport().Size, Padding: s.Padding}
}

// Validate checks colors and sizes. Colors are restricted to hex and a few
// names so they can be written into attributes verbatim.
func (s Style) Validate() error {
	colors := []struct{ name, value string }{
		{"stroke", s.Stroke},
		{"background", s.Background},
		{"node_color", s.NodeColor},
		{"grid_color", s.GridColor},
	}
	for _, c := range colors {
		if _, err := parseColor(c.value); err != nil {
			return fmt.Errorf("style %s: %w", c.name, err)
		}
	}
	if s.Stroke == "none" {
		return fmt.Errorf("style stroke: must be visible")
	}
	if !(s.StrokeWidth > 0) {
		return fmt.Errorf("style stroke_width: must be positive, got %v", s.StrokeWidth)
	}
	if s.NodeRadius < 0 || s.CapLength < 0 {
		return fmt.Errorf("style node_radius and cap_length must not be negative")
	}
	if err := s.Viewport().Validate(); err != nil {
		return fmt.Errorf("style padding: %w", err)
	}
	return nil
}

// LoadStyle reads a YAML style. Fields not present keep their defaults and
// unknown fields are rejected.
func LoadStyle(data []byte) (Style, error) {
	s := DefaultStyle()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Style{}, fmt.Errorf("parse style: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Style{}, err
	}
	return s, nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var namedColors = map[string]color.RGBA{
	"black": {0, 0, 0, 0xff},
	"white": {0xff, 0xff, 0xff, 0xff},
	"red":   {0xff, 0, 0, 0xff},
	"green": {0, 0x80, 0, 0xff},
	"blue":  {0, 0, 0xff, 0xff},
	"gray":  {0x80, 0x80, 0x80, 0xff},
	"none":  {},
}

// parseColor accepts #rgb, #rrggbb and a few names. "none" is transparent.
func parseColor(s string) (color.RGBA, error) {
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !hexColor.MatchString(s) {
		return color.RGBA{}, fmt.Errorf("unsupported color %q", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
