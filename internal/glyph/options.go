package glyph

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/roach88/latticeglyph/internal/cache"
	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/geometry"
	"github.com/roach88/latticeglyph/internal/lattice"
	"github.com/roach88/latticeglyph/internal/render"
)

// RenderOptions is the caller-supplied presentation of a glyph. It only
// affects markup, never encodings or digests.
type RenderOptions struct {
	Style       render.Style         `json:"style"`
	Orientation geometry.Orientation `json:"orientation"`
}

// DefaultRenderOptions renders with render.DefaultStyle and no rotation.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Style: render.DefaultStyle()}
}

// Validate checks the style and orientation.
func (o RenderOptions) Validate() error {
	if err := o.Style.Validate(); err != nil {
		return err
	}
	return o.Orientation.Validate()
}

// key is the stable cache key component for o. Struct fields marshal in
// declaration order, so equal options give equal keys.
func (o RenderOptions) key() string {
	b, err := json.Marshal(o)
	if err != nil {
		// Only non-finite floats fail, and Validate rejects those.
		return ""
	}
	return string(b)
}

// Pipeline is the encode-then-render step that GlyphMarkup memoizes.
// Tests wrap it to count how often the cache falls through.
type Pipeline interface {
	Encode(text string, l *lattice.Lattice) (codec.Path, error)
	Render(path codec.Path, l *lattice.Lattice, opts RenderOptions) (string, error)
}

// DefaultPipeline runs the codec encoder and the SVG renderer.
type DefaultPipeline struct{}

// Encode implements Pipeline.
func (DefaultPipeline) Encode(text string, l *lattice.Lattice) (codec.Path, error) {
	return codec.Encode(text, l)
}

// Render implements Pipeline.
func (DefaultPipeline) Render(path codec.Path, l *lattice.Lattice, opts RenderOptions) (string, error) {
	return render.Render(path, l, opts.Style, opts.Orientation)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache shares a glyph cache between services. Default: a private
// cache per service.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithIDGenerator sets the lattice id generator. Default: UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Service) {
		s.ids = gen
	}
}

// WithRenderOptions sets the presentation GlyphMarkup uses.
// Default: DefaultRenderOptions().
func WithRenderOptions(opts RenderOptions) Option {
	return func(s *Service) {
		s.render = opts
	}
}

// WithPipeline replaces the encode/render step behind GlyphMarkup.
func WithPipeline(p Pipeline) Option {
	return func(s *Service) {
		s.pipeline = p
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
