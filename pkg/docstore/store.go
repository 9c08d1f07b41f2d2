// Package docstore persists object graphs as transport text in a byte cache.
//
// A [Store] pairs a [codec.Codec] with a [cache.Cache]: Put and Save encode a
// Go value, Load and LoadInto decode it again with sharing and cycles
// intact. PutRaw and GetRaw move transport text without a registry, which is
// how the HTTP API accepts documents whose types it does not know.
//
// Raw documents are validated before they are stored: the text must parse
// and every ref must name a record of the document.
package docstore

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/typegraph/pkg/cache"
	"github.com/matzehuels/typegraph/pkg/codec"
	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/observability"
	"github.com/matzehuels/typegraph/pkg/tagged"
)

// Key types reported to the store hooks.
const (
	keyTypeDocument = "document"
	keyTypeSVG      = "svg"
)

// Store saves and loads documents.
type Store struct {
	cache  cache.Cache
	codec  *codec.Codec
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKeyer replaces the default key layout.
func WithKeyer(k cache.Keyer) Option {
	return func(s *Store) {
		if k != nil {
			s.keyer = k
		}
	}
}

// WithTTL expires stored documents after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithLogger sets the logger for store events.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store over c. The codec is only needed for Put, Save, Load
// and LoadInto; raw operations work with a nil codec.
func New(c cache.Cache, cd *codec.Codec, opts ...Option) *Store {
	s := &Store{
		cache:  c,
		codec:  cd,
		keyer:  cache.NewDefaultKeyer(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh document ID.
func NewID() string { return uuid.NewString() }

// =============================================================================
// Typed documents
// =============================================================================

// Save encodes v under a new ID and returns the ID.
func (s *Store) Save(ctx context.Context, v any) (string, error) {
	id := NewID()
	if err := s.Put(ctx, id, v); err != nil {
		return "", err
	}
	return id, nil
}

// Put encodes v and stores it under id, replacing any previous document.
func (s *Store) Put(ctx context.Context, id string, v any) error {
	if err := errors.ValidateDocumentID(id); err != nil {
		return err
	}
	c, err := s.requireCodec()
	if err != nil {
		return err
	}
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	return s.store(ctx, id, data)
}

// Load decodes the document stored under id.
func (s *Store) Load(ctx context.Context, id string) (any, error) {
	c, err := s.requireCodec()
	if err != nil {
		return nil, err
	}
	data, err := s.GetRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Unmarshal(data)
}

// LoadInto decodes the document stored under id into dst.
func (s *Store) LoadInto(ctx context.Context, id string, dst any) error {
	c, err := s.requireCodec()
	if err != nil {
		return err
	}
	data, err := s.GetRaw(ctx, id)
	if err != nil {
		return err
	}
	return c.DeserializeInto(string(data), dst)
}

// =============================================================================
// Raw documents
// =============================================================================

// SaveRaw validates text and stores it under a new ID.
func (s *Store) SaveRaw(ctx context.Context, text []byte) (string, error) {
	id := NewID()
	if err := s.PutRaw(ctx, id, text); err != nil {
		return "", err
	}
	return id, nil
}

// PutRaw validates text and stores its compact form under id.
func (s *Store) PutRaw(ctx context.Context, id string, text []byte) error {
	if err := errors.ValidateDocumentID(id); err != nil {
		return err
	}
	doc, err := Validate(text)
	if err != nil {
		return err
	}
	data, err := tagged.MarshalDocument(doc)
	if err != nil {
		return err
	}
	return s.store(ctx, id, data)
}

// GetRaw returns the transport text stored under id. A missing document is
// NOT_FOUND.
func (s *Store) GetRaw(ctx context.Context, id string) ([]byte, error) {
	if err := errors.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	data, hit, err := s.cache.Get(ctx, s.keyer.DocumentKey(id))
	if err != nil {
		return nil, cacheErr(err, "load document %s", id)
	}
	if !hit {
		observability.Store().OnCacheMiss(ctx, keyTypeDocument)
		return nil, errors.New(errors.ErrCodeNotFound, "document %s not found", id)
	}
	observability.Store().OnCacheHit(ctx, keyTypeDocument)
	return data, nil
}

// Graph returns the node-link view of the document stored under id.
func (s *Store) Graph(ctx context.Context, id string) (graph.Graph, error) {
	data, err := s.GetRaw(ctx, id)
	if err != nil {
		return graph.Graph{}, err
	}
	doc, err := tagged.Parse(data)
	if err != nil {
		return graph.Graph{}, err
	}
	return graph.FromDocument(doc), nil
}

// SVG renders the reference graph of the document stored under id. The
// rendering is cached next to the document and dropped with it.
func (s *Store) SVG(ctx context.Context, id string) ([]byte, error) {
	key := s.keyer.ArtifactKey(id, keyTypeSVG)
	if svg, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		observability.Store().OnCacheHit(ctx, keyTypeSVG)
		return svg, nil
	}
	observability.Store().OnCacheMiss(ctx, keyTypeSVG)

	g, err := s.Graph(ctx, id)
	if err != nil {
		return nil, err
	}
	svg, err := graph.RenderSVG(ctx, graph.ToDOT(g, graph.Options{Detailed: true}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render document %s", id)
	}
	if err := s.cache.Set(ctx, key, svg, s.ttl); err != nil {
		s.logger.Warn("cache svg failed", "id", id, "err", err)
	} else {
		observability.Store().OnCacheSet(ctx, keyTypeSVG, len(svg))
	}
	return svg, nil
}

// Delete removes the document stored under id and its renderings.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.GetRaw(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, s.keyer.DocumentKey(id)); err != nil {
		return cacheErr(err, "delete document %s", id)
	}
	if err := s.cache.Delete(ctx, s.keyer.ArtifactKey(id, keyTypeSVG)); err != nil {
		s.logger.Warn("delete svg failed", "id", id, "err", err)
	}
	s.logger.Debug("deleted document", "id", id)
	return nil
}

// Validate parses text and checks that every ref resolves within it.
func Validate(text []byte) (tagged.Document, error) {
	doc, err := tagged.Parse(text)
	if err != nil {
		return tagged.Document{}, err
	}
	if err := graph.FromDocument(doc).Validate(); err != nil {
		return tagged.Document{}, err
	}
	return doc, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

func (s *Store) store(ctx context.Context, id string, data []byte) error {
	if err := s.cache.Set(ctx, s.keyer.DocumentKey(id), data, s.ttl); err != nil {
		return cacheErr(err, "store document %s", id)
	}
	observability.Store().OnCacheSet(ctx, keyTypeDocument, len(data))
	s.logger.Debug("stored document", "id", id, "bytes", len(data))
	return nil
}

func (s *Store) requireCodec() (*codec.Codec, error) {
	if s.codec == nil {
		return nil, errors.New(errors.ErrCodeInternal, "store has no codec for typed documents")
	}
	return s.codec, nil
}

func cacheErr(err error, format string, args ...any) error {
	code := errors.ErrCodeInternal
	if stderrors.Is(err, cache.ErrNetwork) {
		code = errors.ErrCodeNetwork
	}
	return errors.Wrap(code, err, format, args...)
}
