// Package report summarizes an unknown response value for debugging: its
// type, a sample of its attributes and a truncated JSON dump.
package report

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/fatih/structs"
)

const (
	// MaxAttributes caps the attribute sample.
	MaxAttributes = 120
	// SummaryLimit truncates the dump embedded in Markdown.
	SummaryLimit = 1000
	// DumpLimit truncates the dump printed with --dump.
	DumpLimit = 4000
)

// Attribute is one top-level attribute or key and the type of its value.
type Attribute struct {
	Name string
	Type string
}

// Report describes a response value.
type Report struct {
	TypeName   string
	Attributes []Attribute
	// Omitted counts attributes beyond MaxAttributes.
	Omitted  int
	Dump     string
	DumpErr  error
	Text     string
	Model    string
	Duration time.Duration
}

// Option configures Build
type Option func(*Report)

// WithText sets the response text shown below the summary.
func WithText(text string) Option {
	return func(r *Report) { r.Text = text }
}

// WithModel records the model and request duration.
func WithModel(model string, d time.Duration) Option {
	return func(r *Report) {
		r.Model = model
		r.Duration = d
	}
}

// Build inspects v. It never panics on unexpected input.
func Build(v any, opts ...Option) (r Report) {
	r.TypeName = fmt.Sprintf("%T", v)
	for _, opt := range opts {
		opt(&r)
	}

	defer func() {
		if p := recover(); p != nil {
			r.DumpErr = fmt.Errorf("inspect panicked: %v", p)
		}
	}()

	attrs := attributes(v)
	if len(attrs) > MaxAttributes {
		r.Omitted = len(attrs) - MaxAttributes
		attrs = attrs[:MaxAttributes]
	}
	r.Attributes = attrs

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.DumpErr = err
		r.Dump = fmt.Sprintf("%+v", v)
	} else {
		r.Dump = string(data)
	}
	return r
}

func attributes(v any) []Attribute {
	if v == nil {
		return nil
	}
	if structs.IsStruct(v) {
		var attrs []Attribute
		for _, f := range structs.Fields(v) {
			if !f.IsExported() {
				continue
			}
			attrs = append(attrs, Attribute{Name: f.Name(), Type: typeName(f.Value())})
		}
		return attrs
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map {
		return nil
	}
	attrs := make([]Attribute, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		attrs = append(attrs, Attribute{
			Name: fmt.Sprint(iter.Key().Interface()),
			Type: typeName(iter.Value().Interface()),
		})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	return attrs
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

// Truncate shortens s to at most n characters, marking the cut. The cut
// never splits a multi-byte character.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}

// Markdown renders the report for glamour.
func (r Report) Markdown() string {
	var sb strings.Builder

	sb.WriteString("## Response debug\n\n")
	fmt.Fprintf(&sb, "- **Type:** `%s`\n", r.TypeName)
	if r.Model != "" {
		fmt.Fprintf(&sb, "- **Model:** `%s`\n", r.Model)
	}
	if r.Duration > 0 {
		fmt.Fprintf(&sb, "- **Duration:** %s\n", r.Duration.Round(time.Millisecond))
	}

	if len(r.Attributes) > 0 {
		sb.WriteString("\n| Attribute | Type |\n|---|---|\n")
		for _, a := range r.Attributes {
			fmt.Fprintf(&sb, "| %s | `%s` |\n", a.Name, a.Type)
		}
		if r.Omitted > 0 {
			fmt.Fprintf(&sb, "\n_%d more attributes omitted_\n", r.Omitted)
		}
	}

	if r.Dump != "" {
		sb.WriteString("\n```json\n")
		sb.WriteString(Truncate(r.Dump, SummaryLimit))
		sb.WriteString("\n```\n")
	}
	if r.DumpErr != nil {
		fmt.Fprintf(&sb, "\n_dump incomplete: %v_\n", r.DumpErr)
	}

	if r.Text != "" {
		sb.WriteString("\n### Text\n\n")
		sb.WriteString(r.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// TerminalDump returns the raw dump cut at DumpLimit.
func (r Report) TerminalDump() string {
	return Truncate(r.Dump, DumpLimit)
}
