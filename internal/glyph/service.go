package glyph

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/roach88/latticeglyph/internal/cache"
	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/lattice"
	"github.com/roach88/latticeglyph/internal/render"
	"github.com/roach88/latticeglyph/internal/store"
	"github.com/roach88/latticeglyph/internal/verify"
)

var (
	// ErrDigestMismatch is returned when an encoding's path does not match
	// its recorded digest.
	ErrDigestMismatch = errors.New("encoding digest mismatch")

	// ErrLatticeChanged is returned when an encoding names a lattice
	// revision whose stored content digest differs from the recorded one.
	ErrLatticeChanged = errors.New("lattice revision does not match encoding")
)

// Service is the inbound interface for application code.
type Service struct {
	store    *store.Store
	cache    *cache.Cache
	ids      IDGenerator
	logger   *slog.Logger
	render   RenderOptions
	pipeline Pipeline
}

// New creates a Service backed by st.
//
// Options can be passed to configure the service (e.g., WithLogger).
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		cache:    cache.New(),
		ids:      UUIDv7Generator{},
		logger:   discardLogger(),
		render:   DefaultRenderOptions(),
		pipeline: DefaultPipeline{},
	}

	// Apply options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Cache returns the service's glyph cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// AdhocRules is the character map and normalization for EncodeText.
type AdhocRules struct {
	CharacterMap map[string]lattice.CharEdge `json:"character_map" yaml:"character_map"`
	Normalize    lattice.Rules               `json:"normalize" yaml:"normalize"`
}

// EncodeText encodes text over caller-supplied anchors without touching
// the store. The edge set is implied by the character map. The anchors and
// map must still form a valid lattice.
func (s *Service) EncodeText(text string, anchors []lattice.Vertex, rules AdhocRules) (codec.Path, error) {
	l := lattice.FromAnchors(anchors, rules.CharacterMap, rules.Normalize)
	if err := lattice.Validate(l); err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}
	path, err := codec.Encode(text, l)
	if err != nil {
		s.logger.Debug("encode failed", "lattice", lattice.AdhocName, "kind", codec.KindOf(err))
		return nil, err
	}
	return path, nil
}

// Encode encodes text under the current revision of the lattice ref (id
// or name) and returns the self-describing Encoding.
func (s *Service) Encode(ctx context.Context, ref, text string) (*Encoding, error) {
	rev, err := s.store.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	l := rev.Lattice

	path, err := codec.Encode(text, l)
	if err != nil {
		s.logger.Debug("encode failed", "lattice", l.ID, "kind", codec.KindOf(err))
		return nil, err
	}
	digest, err := verify.Digest(path)
	if err != nil {
		return nil, fmt.Errorf("digest path: %w", err)
	}

	return &Encoding{
		LatticeID:      l.ID,
		LatticeVersion: l.Version,
		LatticeDigest:  rev.Digest,
		Text:           l.Rules.Normalize(text),
		Path:           path,
		Digest:         digest,
	}, nil
}

// GlyphMarkup returns the SVG glyph for text under lattice ref, rendered
// with the service's RenderOptions. Repeated calls are served from the
// cache until the lattice changes.
func (s *Service) GlyphMarkup(ctx context.Context, ref, text string) (string, error) {
	return s.GlyphMarkupWith(ctx, ref, text, s.render)
}

// GlyphMarkupWith is GlyphMarkup with explicit render options. Options are
// part of the cache key.
func (s *Service) GlyphMarkupWith(ctx context.Context, ref, text string, opts RenderOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", fmt.Errorf("render options: %w", err)
	}
	rev, err := s.store.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	l := rev.Lattice
	normalized := l.Rules.Normalize(text)

	key := cache.Key{
		LatticeID:     l.ID,
		LatticeDigest: rev.Digest,
		Render:        opts.key(),
		Text:          normalized,
	}
	markup, hit, err := s.cache.GetOrCreate(key, func() (string, error) {
		path, err := s.pipeline.Encode(normalized, l)
		if err != nil {
			return "", err
		}
		return s.pipeline.Render(path, l, opts)
	})
	if err != nil {
		s.logger.Debug("glyph markup failed", "lattice", l.ID, "kind", codec.KindOf(err))
		return "", err
	}

	if hit {
		s.logger.Debug("glyph cache hit", "lattice", l.ID, "version", l.Version)
	} else {
		s.logger.Debug("glyph cache miss", "lattice", l.ID, "version", l.Version)
	}
	return markup, nil
}

// Rasterize renders text under lattice ref as a size x size image.
// Rasters are not cached.
func (s *Service) Rasterize(ctx context.Context, ref, text string, opts RenderOptions, size int) (*image.RGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("render options: %w", err)
	}
	rev, err := s.store.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	path, err := codec.Encode(text, rev.Lattice)
	if err != nil {
		return nil, err
	}
	r, err := render.New(rev.Lattice)
	if err != nil {
		return nil, err
	}
	return r.Rasterize(path, opts.Style, opts.Orientation, size)
}

// DecodePath decodes a path under the current revision of lattice ref.
func (s *Service) DecodePath(ctx context.Context, ref string, path codec.Path) (string, error) {
	rev, err := s.store.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	return codec.Decode(path, rev.Lattice)
}

// DecodeEncoding decodes an Encoding under the exact lattice revision it
// records, after checking both digests. Encodings made before a lattice
// edit keep decoding against their own revision.
func (s *Service) DecodeEncoding(ctx context.Context, enc *Encoding) (string, error) {
	ok, err := enc.Verify()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrDigestMismatch
	}

	rev, err := s.store.GetRevision(ctx, enc.LatticeID, int(enc.LatticeVersion))
	if err != nil {
		return "", err
	}
	if rev.Digest != enc.LatticeDigest {
		return "", fmt.Errorf("%s v%d: %w", enc.LatticeID, enc.LatticeVersion, ErrLatticeChanged)
	}
	return codec.Decode(enc.Path, rev.Lattice)
}

// DecodeMarkup recovers the text of a glyph rendered by this package under
// lattice ref. The orientation and viewport are read back from the markup,
// so any render options decode.
func (s *Service) DecodeMarkup(ctx context.Context, ref, markup string) (string, error) {
	rev, err := s.store.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	m, err := render.ParseMarkup(markup)
	if err != nil {
		return "", err
	}
	r, err := render.New(rev.Lattice)
	if err != nil {
		return "", err
	}
	path, tol, err := r.Unproject(m)
	if err != nil {
		return "", err
	}
	c, err := codec.New(rev.Lattice)
	if err != nil {
		return "", err
	}
	return c.DecodeWithTolerance(path, tol)
}

// VerifyEncoding reports whether path hashes to expected.
func (s *Service) VerifyEncoding(path codec.Path, expected string) (bool, error) {
	res, err := verify.Verify(path, expected)
	if err != nil {
		return false, err
	}
	return res == verify.Match, nil
}

// CreateLattice validates and stores a new lattice and returns its id.
// An empty l.ID is filled from the id generator.
func (s *Service) CreateLattice(ctx context.Context, l *lattice.Lattice) (string, error) {
	l = l.Clone()
	if l.ID == "" {
		l.ID = s.ids.Generate()
	}
	rev, err := s.store.Create(ctx, l)
	if err != nil {
		return "", err
	}
	s.logger.Info("lattice created",
		"id", rev.Lattice.ID,
		"name", rev.Lattice.Name,
		"version", rev.Lattice.Version,
		"digest", rev.Digest)
	return rev.Lattice.ID, nil
}

// UpdateLattice stores l as the next revision of lattice l.ID and drops
// that lattice's cached glyphs.
func (s *Service) UpdateLattice(ctx context.Context, l *lattice.Lattice) (store.Revision, error) {
	rev, err := s.store.Update(ctx, l)
	if err != nil {
		return store.Revision{}, err
	}
	dropped := s.cache.InvalidateLattice(l.ID)
	s.logger.Info("lattice updated",
		"id", rev.Lattice.ID,
		"version", rev.Lattice.Version,
		"digest", rev.Digest,
		"cache_dropped", dropped)
	return rev, nil
}

// DeleteLattice removes a custom lattice and its cached glyphs.
func (s *Service) DeleteLattice(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	dropped := s.cache.InvalidateLattice(id)
	s.logger.Info("lattice deleted", "id", id, "cache_dropped", dropped)
	return nil
}

// Lattice returns the current revision of lattice ref (id or name).
func (s *Service) Lattice(ctx context.Context, ref string) (store.Revision, error) {
	return s.store.Resolve(ctx, ref)
}

// LatticeRevision returns one revision of lattice id.
func (s *Service) LatticeRevision(ctx context.Context, id string, version int) (store.Revision, error) {
	return s.store.GetRevision(ctx, id, version)
}

// LatticeVersions lists the revision numbers of lattice id, oldest first.
func (s *Service) LatticeVersions(ctx context.Context, id string) ([]int, error) {
	return s.store.Versions(ctx, id)
}

// Lattices lists every stored lattice.
func (s *Service) Lattices(ctx context.Context) ([]store.Summary, error) {
	return s.store.List(ctx)
}
