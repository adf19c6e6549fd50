package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Listing is one row returned by match_properties
type Listing struct {
	Ref         *string    `json:"ref,omitempty" db:"ref"`
	Description *string    `json:"description,omitempty" db:"description"`
	Features    StringList `json:"features,omitempty" db:"features"`
	Town        *string    `json:"town,omitempty" db:"town"`
	Province    *string    `json:"province,omitempty" db:"province"`
	Country     *string    `json:"country,omitempty" db:"country"`
	Price       *float64   `json:"price,omitempty" db:"price"`
	Currency    *string    `json:"currency,omitempty" db:"currency"`
	Bedrooms    *int       `json:"beds,omitempty" db:"beds"`
	Bathrooms   *int       `json:"baths,omitempty" db:"baths"`
	Pool        *int       `json:"pool,omitempty" db:"pool"`
	BuiltArea   *float64   `json:"built,omitempty" db:"built"`
	ImageURL    StringList `json:"image_url,omitempty" db:"image_url"`
	URL         *string    `json:"url_en,omitempty" db:"url_en"`
}

// PrimaryImage returns the first image URL or ""
func (l *Listing) PrimaryImage() string {
	return l.ImageURL.First()
}

// HasPool reports whether the pool column is set to 1
func (l *Listing) HasPool() bool {
	return l.Pool != nil && *l.Pool == 1
}

// LocalizedListing pairs a listing with its localized text
type LocalizedListing struct {
	Listing
	LocalizedDescription string
	LocalizedFeatures    string
}

// StringList is a text column that may hold a JSON array, a Postgres array
// literal, or a single scalar value
type StringList []string

// First returns the first element or ""
func (s StringList) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Value implements driver.Valuer interface
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface
func (s *StringList) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("string list: unsupported type %T", value)
	}

	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		*s = nil
		return nil
	case strings.HasPrefix(raw, "["):
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return fmt.Errorf("string list: %w", err)
		}
		*s = out
	case strings.HasPrefix(raw, "{"):
		var arr pq.StringArray
		if err := arr.Scan([]byte(raw)); err != nil {
			return fmt.Errorf("string list: %w", err)
		}
		*s = StringList(arr)
	default:
		*s = StringList{raw}
	}
	return nil
}
