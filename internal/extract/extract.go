// Package extract locates image bytes inside generative-API responses whose
// schema is not known in advance.
//
// The search is first-match over a fixed traversal order:
//
//  1. inline data and flat byte attributes on the parts of a message object
//  2. direct base64/raw keys, then nested container keys, of a mapping
//  3. byte, base64 or URL attributes of an object
//  4. the elements of a sequence
//
// Depth and the number of nodes entered are both bounded.
//
// No failure inside the search escapes it. A missing field, bad base64, a
// failed fetch or an unexpected type only ends the branch being explored.
package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

// DefaultMaxDepth bounds recursion into nested containers.
const DefaultMaxDepth = 64

// DefaultMaxVisits bounds the number of nodes one search enters. A subtree
// reachable from several parents is counted once per parent.
const DefaultMaxVisits = 100_000

// Source describes how a payload was stored in the response.
type Source string

const (
	SourceInline Source = "inline"
	SourceRaw    Source = "raw"
	SourceBase64 Source = "base64"
	SourceURL    Source = "url"
)

// Match is a payload found in a response tree.
type Match struct {
	Data   []byte
	Path   string
	Source Source
	// URL is set when Source is SourceURL.
	URL string
}

// Fetcher retrieves the body of an image URL. Implementations return an
// error for any status other than 200.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Extractor searches response trees for image bytes. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	candidates Candidates
	fetcher    Fetcher
	maxDepth   int
	maxVisits  int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCandidates replaces the probed names.
func WithCandidates(c Candidates) Option {
	return func(e *Extractor) {
		e.candidates = c
	}
}

// WithFetcher sets the fetcher used for URL-valued attributes. Without one,
// URL attributes are skipped.
func WithFetcher(f Fetcher) Option {
	return func(e *Extractor) {
		e.fetcher = f
	}
}

// WithMaxDepth bounds recursion. Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(e *Extractor) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithMaxVisits bounds the nodes entered per search. Values below 1 keep
// the default.
func WithMaxVisits(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxVisits = n
		}
	}
}

// New creates an Extractor using DefaultCandidates.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		candidates: DefaultCandidates(),
		maxDepth:   DefaultMaxDepth,
		maxVisits:  DefaultMaxVisits,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the first image payload in node, or nil.
func (e *Extractor) Extract(ctx context.Context, node any) []byte {
	m, ok := e.Find(ctx, node)
	if !ok {
		return nil
	}
	return m.Data
}

// Find returns the first image payload in node along with where it was found.
func (e *Extractor) Find(ctx context.Context, node any) (m Match, ok bool) {
	log := logr.FromContextOrDiscard(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.V(1).Info("extraction aborted", "panic", fmt.Sprint(r))
			m, ok = Match{}, false
		}
	}()

	w := walker{Extractor: e, log: log.V(1), visits: new(int)}
	m, ok = w.find(ctx, node, "", 0)
	if ok {
		log.V(1).Info("payload found", "path", m.Path, "source", m.Source, "bytes", len(m.Data))
	}
	return m, ok
}

type walker struct {
	*Extractor
	log logr.Logger
	// visits is shared by every copy of the walker in one search.
	visits *int
}

func (w walker) find(ctx context.Context, node any, path string, depth int) (Match, bool) {
	*w.visits++
	if *w.visits > w.maxVisits {
		if *w.visits == w.maxVisits+1 {
			w.reject(path, "visit budget exhausted")
		}
		return Match{}, false
	}
	if depth > w.maxDepth {
		w.reject(path, "max depth exceeded")
		return Match{}, false
	}

	obj, isObject := asObject(node)
	if isObject {
		if m, ok := w.fromParts(obj, path); ok {
			return m, true
		}
	}
	if mapping, ok := asMapping(node); ok {
		if m, ok := w.fromMapping(ctx, mapping, path, depth); ok {
			return m, true
		}
	}
	if isObject {
		if m, ok := w.fromAttributes(ctx, obj, path); ok {
			return m, true
		}
	}
	if seq, ok := asSequence(node); ok {
		if m, ok := w.fromSequence(ctx, seq, path, depth); ok {
			return m, true
		}
	}
	return Match{}, false
}

// fromParts checks each part for inline data, then for flat byte attributes.
func (w walker) fromParts(obj Object, path string) (Match, bool) {
	c := w.candidates
	parts, ok := field(obj, c.PartsAttribute)
	if !ok {
		return Match{}, false
	}
	partsPath := join(path, c.PartsAttribute)
	seq, ok := asSequence(parts)
	if !ok {
		w.reject(partsPath, "not a sequence")
		return Match{}, false
	}

	for i := range length(seq) {
		partPath := index(partsPath, i)
		part, ok := asObject(item(seq, i))
		if !ok {
			continue
		}

		if inline, ok := field(part, c.InlineAttribute); ok {
			inlinePath := join(partPath, c.InlineAttribute)
			if inlineObj, ok := asObject(inline); ok {
				if data, ok := field(inlineObj, c.InlineDataAttribute); ok {
					if b, ok := payload(data); ok {
						return Match{Data: b, Path: join(inlinePath, c.InlineDataAttribute), Source: SourceInline}, true
					}
				}
			}
		}

		for _, name := range c.PartAttributes {
			v, ok := field(part, name)
			if !ok || !truthy(v) {
				continue
			}
			if b, ok := payload(v); ok {
				return Match{Data: b, Path: join(partPath, name), Source: SourceRaw}, true
			}
			w.reject(join(partPath, name), "not bytes or text")
		}
	}
	return Match{}, false
}

// fromMapping tries the direct payload keys, then recurses into containers.
func (w walker) fromMapping(ctx context.Context, mapping Mapping, path string, depth int) (Match, bool) {
	for _, key := range w.candidates.DirectKeys {
		v, ok := lookup(mapping, key)
		if !ok || !truthy(v) {
			continue
		}
		keyPath := join(path, key)
		if s, ok := asText(v); ok {
			if b, ok := decodeBase64(s); ok {
				return Match{Data: b, Path: keyPath, Source: SourceBase64}, true
			}
			w.reject(keyPath, "invalid base64")
			continue
		}
		if b, ok := asBytes(v); ok && len(b) > 0 {
			return Match{Data: b, Path: keyPath, Source: SourceRaw}, true
		}
		w.reject(keyPath, "not bytes or text")
	}

	for _, key := range w.candidates.ContainerKeys {
		v, ok := lookup(mapping, key)
		if !ok {
			continue
		}
		seq, ok := asSequence(v)
		if !ok {
			w.reject(join(path, key), "not a sequence")
			continue
		}
		if m, ok := w.fromSequence(ctx, seq, join(path, key), depth); ok {
			return m, true
		}
	}
	return Match{}, false
}

// fromAttributes is the object fallback: raw bytes, base64 text, or a URL.
func (w walker) fromAttributes(ctx context.Context, obj Object, path string) (Match, bool) {
	for _, name := range w.candidates.FallbackAttributes {
		v, ok := field(obj, name)
		if !ok {
			continue
		}
		attrPath := join(path, name)
		if b, ok := asBytes(v); ok {
			if len(b) > 0 {
				return Match{Data: b, Path: attrPath, Source: SourceRaw}, true
			}
			continue
		}
		s, ok := asText(v)
		if !ok || s == "" {
			continue
		}
		if b, ok := decodeBase64(s); ok {
			return Match{Data: b, Path: attrPath, Source: SourceBase64}, true
		}
		if !strings.HasPrefix(s, "http") {
			w.reject(attrPath, "invalid base64")
			continue
		}
		if b, ok := w.fetch(ctx, s, attrPath); ok {
			return Match{Data: b, Path: attrPath, Source: SourceURL, URL: s}, true
		}
	}
	return Match{}, false
}

func (w walker) fromSequence(ctx context.Context, seq Sequence, path string, depth int) (Match, bool) {
	for i := range length(seq) {
		if m, ok := w.find(ctx, item(seq, i), index(path, i), depth+1); ok {
			return m, true
		}
	}
	return Match{}, false
}

func (w walker) fetch(ctx context.Context, url, path string) (b []byte, ok bool) {
	if w.fetcher == nil {
		w.reject(path, "no fetcher configured")
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			w.reject(path, fmt.Sprintf("fetch panicked: %v", r))
			b, ok = nil, false
		}
	}()
	b, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		w.log.Info("candidate rejected", "path", path, "reason", "fetch failed", "error", err.Error())
		return nil, false
	}
	if len(b) == 0 {
		w.reject(path, "empty body")
		return nil, false
	}
	return b, true
}

func (w walker) reject(path, reason string) {
	w.log.Info("candidate rejected", "path", path, "reason", reason)
}

// payload accepts raw bytes or text verbatim, without decoding.
func payload(v any) ([]byte, bool) {
	if b, ok := asBytes(v); ok {
		return b, len(b) > 0
	}
	if s, ok := asText(v); ok {
		return []byte(s), s != ""
	}
	return nil, false
}

// decodeBase64 decodes standard padded base64, after stripping an optional
// data URI prefix.
func decodeBase64(s string) ([]byte, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if _, data, found := strings.Cut(s, ";base64,"); found {
			s = data
		}
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b, true
}

// The probes below contain panics raised by adapters, so a misbehaving
// node only ends its own branch.

func field(obj Object, name string) (v any, ok bool) {
	if name == "" {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()
	return obj.Field(name)
}

func lookup(m Mapping, key string) (v any, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()
	return m.Lookup(key)
}

func length(s Sequence) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return s.Len()
}

func item(s Sequence, i int) (v any) {
	defer func() {
		if recover() != nil {
			v = nil
		}
	}()
	return s.Index(i)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
