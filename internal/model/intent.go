package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Intent categories as emitted by the classifier
const (
	IntentGeneralQuestion = "algemene vraag"
	IntentPropertySearch  = "vastgoedzoekopdracht"
)

// Default filter values applied when the classifier leaves a filter unset
const (
	DefaultMinBedrooms  = 1
	DefaultMinBathrooms = 1
)

// Languages lists the supported reply languages, keyed by code
var Languages = map[string]string{
	"nl": "Dutch",
	"en": "English",
	"de": "German",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"no": "Norwegian",
}

// LanguageCodes is the ordered list of supported codes
var LanguageCodes = []string{"nl", "en", "de", "es", "fr", "it", "pt", "ru", "no"}

// IntentResult represents the classified intent of a user prompt
type IntentResult struct {
	Language string        `json:"taal"`
	Intent   string        `json:"intentie"`
	Filters  IntentFilters `json:"filters"`
}

// IsPropertySearch reports whether the prompt should go down the retrieval branch
func (r *IntentResult) IsPropertySearch() bool {
	return r != nil && r.Intent == IntentPropertySearch
}

// IntentFilters represents structured conditions extracted from the prompt
type IntentFilters struct {
	MinBedrooms  *int     `json:"min_slaapkamers"`
	MinBathrooms *int     `json:"min_badkamers"`
	Pool         *Flag    `json:"zwembad"`
	MaxPrice     *float64 `json:"max_prijs"`
	Location     *string  `json:"locatie"`
}

// MatchParams are the arguments of the match_properties procedure
type MatchParams struct {
	Embedding    []float32
	MatchCount   int
	Threshold    float64
	MaxPrice     *float64
	MinBathrooms int
	MinBedrooms  int
	PoolRequired int
}

// MatchParams resolves the filters into procedure arguments. Unset or
// non-positive bed and bath minimums fall back to 1, an unset pool flag to 0,
// an unset or non-positive max price stays NULL.
func (f IntentFilters) MatchParams(embedding []float32, count int, threshold float64) MatchParams {
	p := MatchParams{
		Embedding:    embedding,
		MatchCount:   count,
		Threshold:    threshold,
		MinBathrooms: DefaultMinBathrooms,
		MinBedrooms:  DefaultMinBedrooms,
	}
	if f.MinBedrooms != nil && *f.MinBedrooms > 0 {
		p.MinBedrooms = *f.MinBedrooms
	}
	if f.MinBathrooms != nil && *f.MinBathrooms > 0 {
		p.MinBathrooms = *f.MinBathrooms
	}
	if f.MaxPrice != nil && *f.MaxPrice > 0 {
		maxPrice := *f.MaxPrice
		p.MaxPrice = &maxPrice
	}
	if f.Pool != nil && bool(*f.Pool) {
		p.PoolRequired = 1
	}
	return p
}

// Flag is a boolean that also accepts 0/1 on the wire
type Flag bool

// UnmarshalJSON accepts true, false, 0 and 1
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", "1":
		*f = true
	case "false", "0":
		*f = false
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("flag: unsupported value %s", data)
		}
		*f = n != 0
	}
	return nil
}

// MarshalJSON writes the flag as 0 or 1
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}
