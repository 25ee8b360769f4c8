package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ProductMatch is one scored search result returned by the search backend
type ProductMatch struct {
	URL        string            `json:"url"`
	Filename   string            `json:"filename"`
	Score      float64           `json:"score"`                // Similarity 0-1, higher is closer
	Attributes map[string]string `json:"attributes,omitempty"` // Filter category -> value
}

// Attribute returns the value stored for a filter category, matching the key case-insensitively
func (p ProductMatch) Attribute(category string) (string, bool) {
	key := NormalizeCategory(category)
	if v, ok := p.Attributes[key]; ok {
		return v, true
	}
	for k, v := range p.Attributes {
		if NormalizeCategory(k) == key {
			return v, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a backend result.
// A missing or non-numeric score decodes as 0. Extra top-level string fields
// (e.g. "tile_type") are folded into Attributes; values under "attributes" take
// precedence over them. When several keys normalise to the same category, a key
// already in normalised form wins, then the lexically smallest key.
func (p *ProductMatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = ProductMatch{}
	nested := make(attributeSet)
	flat := make(attributeSet)

	for key, value := range raw {
		switch strings.ToLower(key) {
		case "url":
			_ = json.Unmarshal(value, &p.URL)
		case "filename":
			_ = json.Unmarshal(value, &p.Filename)
		case "score":
			p.Score = parseScore(value)
		case "attributes":
			var fields map[string]any
			if err := json.Unmarshal(value, &fields); err == nil {
				for k, v := range fields {
					if s, ok := attributeString(v); ok {
						nested.add(k, s)
					}
				}
			}
		default:
			var v any
			if err := json.Unmarshal(value, &v); err == nil {
				if s, ok := v.(string); ok {
					flat.add(key, s)
				}
			}
		}
	}

	attrs := make(map[string]string, len(nested)+len(flat))
	for category, entry := range flat {
		attrs[category] = entry.value
	}
	for category, entry := range nested {
		attrs[category] = entry.value
	}
	if len(attrs) > 0 {
		p.Attributes = attrs
	}
	return nil
}

type attributeEntry struct {
	key   string
	value string
}

// attributeSet keeps one value per normalised category
type attributeSet map[string]attributeEntry

func (a attributeSet) add(key, value string) {
	category := NormalizeCategory(key)
	if current, ok := a[category]; ok && !preferKey(key, current.key, category) {
		return
	}
	a[category] = attributeEntry{key: key, value: value}
}

func preferKey(candidate, current, category string) bool {
	if (candidate == category) != (current == category) {
		return candidate == category
	}
	return candidate < current
}

// parseScore accepts JSON numbers and numeric strings; anything else is 0
func parseScore(value json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(value, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return parsed
		}
	}
	return 0
}

func attributeString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	}
	return "", false
}

// SearchResponse is the body the search backend returns for /upload and /search
type SearchResponse struct {
	Results []ProductMatch `json:"results"`
	Error   string         `json:"error,omitempty"`
}
