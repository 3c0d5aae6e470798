package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Response shapes modelled on SDK types.
type blob struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

type part struct {
	InlineData *blob  `json:"inlineData,omitempty"`
	Text       string `json:"text,omitempty"`
}

type rawPart struct {
	ImageBytes []byte
	Binary     []byte
}

type message struct {
	Parts []any
	Data  []byte
	URL   string
}

type urlImage struct {
	URL string `json:"url"`
}

type generatedImage struct {
	Image []byte
}

type textContent struct {
	Content string
}

type panicky struct{}

func (panicky) Field(string) (any, bool) { panic("boom") }

type imageName string

type imageBlob []byte

var (
	payloadX = []byte("\x89PNG-X")
	payloadY = []byte("\x89PNG-Y")
	payloadZ = []byte("\xff\xd8\xff-Z")
)

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func TestExtract_NoCandidates(t *testing.T) {
	tests := []struct {
		name string
		node any
	}{
		{"nil", nil},
		{"number", 42},
		{"plain string", "plain"},
		{"bytes scalar", []byte("not reachable")},
		{"struct without candidates", struct{ Name string }{"x"}},
		{"non-base64 content", textContent{Content: "hello world"}},
		{"mapping without candidates", map[string]any{"foo": "bar"}},
		{"container key holding scalar", map[string]any{"output": "text"}},
		{"sequence of scalars", []any{1, "x", nil}},
		{"empty parts", message{Parts: []any{}}},
		{"nil inline data", message{Parts: []any{&part{Text: "hi"}}}},
		{"nested empty", map[string]any{"candidates": []any{map[string]any{"parts": []any{}}}}},
		{"nil pointer", (*message)(nil)},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Extract(context.Background(), tt.node); got != nil {
				t.Errorf("Extract() = %q, want nil", got)
			}
		})
	}
}

func TestFind_InlineDataPriority(t *testing.T) {
	node := &message{
		Parts: []any{
			&part{InlineData: &blob{MIMEType: "image/png", Data: payloadX}},
			&part{InlineData: &blob{Data: payloadY}},
		},
		Data: payloadZ,
		URL:  "http://example.test/img.png",
	}

	e := New(WithFetcher(FetcherFunc(func(context.Context, string) ([]byte, error) {
		t.Fatal("fetch should not be called")
		return nil, nil
	})))

	got, ok := e.Find(context.Background(), node)
	if !ok {
		t.Fatal("Find() found nothing")
	}
	want := Match{Data: payloadX, Path: "parts[0].inline_data.data", Source: SourceInline}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_PartAttributes(t *testing.T) {
	tests := []struct {
		name     string
		part     any
		want     []byte
		wantPath string
	}{
		{
			name:     "binary before image_bytes",
			part:     rawPart{Binary: payloadX, ImageBytes: payloadY},
			want:     payloadX,
			wantPath: "parts[0].binary",
		},
		{
			name:     "image_bytes when binary empty",
			part:     rawPart{ImageBytes: payloadY},
			want:     payloadY,
			wantPath: "parts[0].image_bytes",
		},
		{
			name:     "inline without data falls to flat attributes",
			part:     struct{ InlineData *blob; Data []byte }{&blob{}, payloadZ},
			want:     payloadZ,
			wantPath: "parts[0].data",
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Find(context.Background(), message{Parts: []any{tt.part}})
			if !ok {
				t.Fatal("Find() found nothing")
			}
			if string(got.Data) != string(tt.want) || got.Path != tt.wantPath || got.Source != SourceRaw {
				t.Errorf("Find() = %+v, want %q at %s", got, tt.want, tt.wantPath)
			}
		})
	}
}

func TestFind_PartsFallThroughToOriginalNode(t *testing.T) {
	node := &message{
		Parts: []any{&part{Text: "no image here"}},
		Data:  payloadY,
	}

	got, ok := New().Find(context.Background(), node)
	if !ok {
		t.Fatal("Find() found nothing")
	}
	want := Match{Data: payloadY, Path: "data", Source: SourceRaw}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_MappingDirectKeyBeatsContainer(t *testing.T) {
	node := map[string]any{
		"b64_json": b64(payloadX),
		"candidates": []any{
			map[string]any{"b64": b64(payloadY)},
		},
	}

	got, ok := New().Find(context.Background(), node)
	if !ok {
		t.Fatal("Find() found nothing")
	}
	want := Match{Data: payloadX, Path: "b64_json", Source: SourceBase64}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_InvalidBase64FallsThrough(t *testing.T) {
	node := map[string]any{
		"b64_json": "not base64!!",
		"candidates": []any{
			map[string]any{"b64": b64(payloadY)},
		},
	}

	got, ok := New().Find(context.Background(), node)
	if !ok {
		t.Fatal("Find() found nothing")
	}
	want := Match{Data: payloadY, Path: "candidates[0].b64", Source: SourceBase64}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_MappingKeyOrder(t *testing.T) {
	tests := []struct {
		name     string
		node     any
		want     []byte
		wantPath string
		source   Source
	}{
		{
			name:     "b64 before data",
			node:     map[string]any{"data": b64(payloadY), "b64": b64(payloadX)},
			want:     payloadX,
			wantPath: "b64",
			source:   SourceBase64,
		},
		{
			name:     "falsy key skipped",
			node:     map[string]any{"b64_json": "", "image": []byte(payloadZ)},
			want:     payloadZ,
			wantPath: "image",
			source:   SourceRaw,
		},
		{
			name:     "non-text value skipped",
			node:     map[string]any{"data": []any{1}, "image_data": b64(payloadY)},
			want:     payloadY,
			wantPath: "image_data",
			source:   SourceBase64,
		},
		{
			name:     "output before images",
			node:     map[string]any{"images": []any{map[string]any{"b64": b64(payloadY)}}, "output": []any{map[string]any{"b64": b64(payloadX)}}},
			want:     payloadX,
			wantPath: "output[0].b64",
			source:   SourceBase64,
		},
		{
			name:     "typed map",
			node:     map[string]string{"b64_json": b64(payloadX)},
			want:     payloadX,
			wantPath: "b64_json",
			source:   SourceBase64,
		},
		{
			name:     "data uri",
			node:     map[string]any{"image": "data:image/png;base64," + b64(payloadZ)},
			want:     payloadZ,
			wantPath: "image",
			source:   SourceBase64,
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Find(context.Background(), tt.node)
			if !ok {
				t.Fatal("Find() found nothing")
			}
			want := Match{Data: tt.want, Path: tt.wantPath, Source: tt.source}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Find() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_SequenceFirstMatch(t *testing.T) {
	a := map[string]any{"foo": "bar"}
	b := generatedImage{Image: payloadY}

	got := New().Extract(context.Background(), []any{a, b})
	if string(got) != string(payloadY) {
		t.Errorf("Extract() = %q, want %q", got, payloadY)
	}
}

func TestExtract_URLAttribute(t *testing.T) {
	const url = "http://example.test/img.png"

	tests := []struct {
		name    string
		fetcher Fetcher
		want    []byte
	}{
		{
			name: "status 200",
			fetcher: FetcherFunc(func(_ context.Context, got string) ([]byte, error) {
				if got != url {
					return nil, errors.New("unexpected url " + got)
				}
				return payloadZ, nil
			}),
			want: payloadZ,
		},
		{
			name: "non-200",
			fetcher: FetcherFunc(func(context.Context, string) ([]byte, error) {
				return nil, errors.New("unexpected status 404")
			}),
			want: nil,
		},
		{
			name: "empty body",
			fetcher: FetcherFunc(func(context.Context, string) ([]byte, error) {
				return nil, nil
			}),
			want: nil,
		},
		{
			name: "panicking fetcher",
			fetcher: FetcherFunc(func(context.Context, string) ([]byte, error) {
				panic("transport exploded")
			}),
			want: nil,
		},
		{
			name:    "no fetcher",
			fetcher: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithFetcher(tt.fetcher))
			got := e.Extract(context.Background(), urlImage{URL: url})
			if string(got) != string(tt.want) {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFind_URLMatchMetadata(t *testing.T) {
	const url = "https://example.test/generated.png"
	e := New(WithFetcher(FetcherFunc(func(context.Context, string) ([]byte, error) {
		return payloadZ, nil
	})))

	got, ok := e.Find(context.Background(), []any{nil, &urlImage{URL: url}})
	if !ok {
		t.Fatal("Find() found nothing")
	}
	want := Match{Data: payloadZ, Path: "[1].url", Source: SourceURL, URL: url}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_FallbackAttributeOrder(t *testing.T) {
	node := struct {
		URL     string
		B64JSON string
		Content string
	}{
		URL:     "http://example.test/never-fetched.png",
		B64JSON: b64(payloadY),
		Content: "plain text, not base64",
	}

	fetched := false
	e := New(WithFetcher(FetcherFunc(func(context.Context, string) ([]byte, error) {
		fetched = true
		return payloadZ, nil
	})))

	got, ok := e.Find(context.Background(), node)
	if !ok {
		t.Fatal("Find() found nothing")
	}
	if got.Path != "b64_json" || string(got.Data) != string(payloadY) {
		t.Errorf("Find() = %+v, want b64_json payload", got)
	}
	if fetched {
		t.Error("URL should not be fetched when an earlier attribute matched")
	}
}

func TestFind_NamedScalarTypes(t *testing.T) {
	node := struct {
		Image imageBlob
		URL   imageName
	}{Image: imageBlob(payloadX)}

	got, ok := New().Find(context.Background(), node)
	if !ok || string(got.Data) != string(payloadX) {
		t.Errorf("Find() = %+v, %v; want named byte slice payload", got, ok)
	}
}

func TestExtract_PanickingAdapter(t *testing.T) {
	e := New()

	if got := e.Extract(context.Background(), panicky{}); got != nil {
		t.Errorf("Extract() = %q, want nil", got)
	}

	got := e.Extract(context.Background(), []any{panicky{}, generatedImage{Image: payloadX}})
	if string(got) != string(payloadX) {
		t.Errorf("Extract() = %q, want sibling payload %q", got, payloadX)
	}
}

func TestExtract_MaxDepth(t *testing.T) {
	var node any = map[string]any{"b64": b64(payloadX)}
	for range 5 {
		node = []any{node}
	}

	if got := New(WithMaxDepth(3)).Extract(context.Background(), node); got != nil {
		t.Errorf("Extract() with depth 3 = %q, want nil", got)
	}
	if got := New().Extract(context.Background(), node); string(got) != string(payloadX) {
		t.Errorf("Extract() with default depth = %q, want %q", got, payloadX)
	}
}

func TestExtract_MaxVisits(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		node func() any
		want []byte
	}{
		{
			name: "found within budget",
			opts: []Option{WithMaxVisits(3)},
			node: func() any { return []any{"x", generatedImage{Image: payloadX}} },
			want: payloadX,
		},
		{
			name: "budget spent before payload",
			opts: []Option{WithMaxVisits(10)},
			node: func() any {
				items := make([]any, 0, 21)
				for range 20 {
					items = append(items, map[string]any{"foo": "bar"})
				}
				return append(items, generatedImage{Image: payloadX})
			},
		},
		{
			name: "shared subtree stops at default budget",
			node: func() any {
				var shared any = map[string]any{"foo": "bar"}
				for range 40 {
					shared = []any{shared, shared}
				}
				return []any{shared, generatedImage{Image: payloadX}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.opts...).Extract(context.Background(), tt.node())
			if string(got) != string(tt.want) {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	node := map[string]any{
		"candidates": []any{
			&message{Parts: []any{&part{InlineData: &blob{Data: payloadX}}}},
		},
	}

	e := New()
	first := e.Extract(context.Background(), node)
	second := e.Extract(context.Background(), node)
	if first == nil || string(first) != string(second) {
		t.Errorf("Extract() not idempotent: %q then %q", first, second)
	}
}

func TestWithCandidates(t *testing.T) {
	node := map[string]any{"data": []any{map[string]any{"b64_json": b64(payloadX)}}}

	if got := New().Extract(context.Background(), node); got != nil {
		t.Errorf("default candidates should not recurse into data, got %q", got)
	}

	c := DefaultCandidates().Extend(Candidates{ContainerKeys: []string{"data"}})
	got := New(WithCandidates(c)).Extract(context.Background(), node)
	if string(got) != string(payloadX) {
		t.Errorf("Extract() = %q, want %q", got, payloadX)
	}
}
