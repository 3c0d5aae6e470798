package extract

import "github.com/samber/lo"

// Candidates holds the ordered field and key names probed at each traversal
// step. Order is priority: earlier names win.
type Candidates struct {
	// PartsAttribute marks an object as a multi-segment message.
	PartsAttribute string `json:"parts_attribute,omitempty"`
	// InlineAttribute and InlineDataAttribute locate inline binary on a part.
	InlineAttribute     string `json:"inline_attribute,omitempty"`
	InlineDataAttribute string `json:"inline_data_attribute,omitempty"`
	// PartAttributes are flat byte attributes checked on each part.
	PartAttributes []string `json:"part_attributes,omitempty"`
	// DirectKeys are mapping keys holding a base64 or raw payload.
	DirectKeys []string `json:"direct_keys,omitempty"`
	// ContainerKeys are mapping keys holding nested sequences.
	ContainerKeys []string `json:"container_keys,omitempty"`
	// FallbackAttributes are object attributes holding bytes, base64 or a URL.
	FallbackAttributes []string `json:"fallback_attributes,omitempty"`
}

// DefaultCandidates returns the names known from past response schemas.
func DefaultCandidates() Candidates {
	return Candidates{
		PartsAttribute:      "parts",
		InlineAttribute:     "inline_data",
		InlineDataAttribute: "data",
		PartAttributes:      []string{"binary", "data", "image_bytes"},
		DirectKeys:          []string{"b64_json", "b64", "data", "image", "image_data"},
		ContainerKeys:       []string{"candidates", "output", "images", "parts"},
		FallbackAttributes:  []string{"image", "content", "binary", "data", "b64_json", "uri", "url"},
	}
}

// Extend appends the names in extra after the receiver's names, dropping
// duplicates. Single-name fields are only replaced when empty, so the
// priority of existing names never changes.
func (c Candidates) Extend(extra Candidates) Candidates {
	return Candidates{
		PartsAttribute:      lo.Ternary(c.PartsAttribute != "", c.PartsAttribute, extra.PartsAttribute),
		InlineAttribute:     lo.Ternary(c.InlineAttribute != "", c.InlineAttribute, extra.InlineAttribute),
		InlineDataAttribute: lo.Ternary(c.InlineDataAttribute != "", c.InlineDataAttribute, extra.InlineDataAttribute),
		PartAttributes:      merge(c.PartAttributes, extra.PartAttributes),
		DirectKeys:          merge(c.DirectKeys, extra.DirectKeys),
		ContainerKeys:       merge(c.ContainerKeys, extra.ContainerKeys),
		FallbackAttributes:  merge(c.FallbackAttributes, extra.FallbackAttributes),
	}
}

func merge(base, extra []string) []string {
	names := append(append([]string{}, base...), extra...)
	return lo.Uniq(lo.Without(names, ""))
}
