package domain

import (
	"bytes"
	"strings"

	json "github.com/goccy/go-json"
)

// Resource is a support link kept outside the timeline.
type Resource struct {
	Name        string   `json:"name"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// NewResource builds a resource with normalized tags.
func NewResource(name, link, description string, tags []string) Resource {
	return Resource{
		Name:        strings.TrimSpace(name),
		Link:        strings.TrimSpace(link),
		Description: strings.TrimSpace(description),
		Tags:        NormalizeTags(tags),
	}
}

// Validate checks the fields a new resource needs.
func (r Resource) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "resource name is required")
	}
	return nil
}

type resourceWire struct {
	Name        json.RawMessage `json:"name"`
	Link        json.RawMessage `json:"link"`
	Description json.RawMessage `json:"description"`
	Tags        json.RawMessage `json:"tags"`
}

// UnmarshalJSON accepts the canonical object form as well as a bare string,
// which becomes the resource name.
func (r *Resource) UnmarshalJSON(data []byte) error {
	*r = Resource{Tags: []string{}}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if s, ok := decodeText(trimmed); ok {
			r.Name = s
		} else {
			r.Name = string(trimmed)
		}
		return nil
	}

	var w resourceWire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return err
	}
	r.Name = textOrEmpty(w.Name)
	r.Link = textOrEmpty(w.Link)
	r.Description = textOrEmpty(w.Description)
	r.Tags = decodeTags(w.Tags)
	return nil
}

// MarshalJSON always writes all four keys, tags as a list.
func (r Resource) MarshalJSON() ([]byte, error) {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	type plain Resource
	return json.Marshal(plain{
		Name:        r.Name,
		Link:        r.Link,
		Description: r.Description,
		Tags:        tags,
	})
}

// NormalizeTags trims values, drops empties and removes duplicates
// keeping the first occurrence.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated tag string.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

func decodeTags(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []string{}
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return []string{}
		}
		return SplitTags(s)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return []string{}
		}
		tags := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := decodeText(item); ok {
				tags = append(tags, s)
			}
		}
		return NormalizeTags(tags)
	default:
		return []string{}
	}
}

func textOrEmpty(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	s, _ := decodeText(raw)
	return s
}
