package service

import (
	"strconv"
	"strings"

	"property-assistant/internal/model"
)

// SectionDelimiter separates listings in the block layout
const SectionDelimiter = "━━━━━━━━━━━━━━━━━━━━"

// Formatter renders localized listings for the caller. It never reorders.
type Formatter struct{}

// NewFormatter creates a new formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Captions renders one caption/image pair per listing
func (f *Formatter) Captions(listings []model.LocalizedListing, lang string) []model.ResultItem {
	items := make([]model.ResultItem, 0, len(listings))
	for _, l := range listings {
		var b strings.Builder
		f.writeCore(&b, l, lang)
		b.WriteString("🔗 " + deref(l.URL))

		items = append(items, model.ResultItem{
			Caption:  b.String(),
			ImageURL: l.PrimaryImage(),
		})
	}
	return items
}

// Block renders all listings as one text with a count header
func (f *Formatter) Block(listings []model.LocalizedListing, lang string) string {
	var b strings.Builder
	b.WriteString(foundHeader(lang, len(listings)))

	for _, l := range listings {
		b.WriteString("\n\n" + SectionDelimiter + "\n\n")
		f.writeCore(&b, l, lang)
		b.WriteString("📐 " + formatNumber(l.BuiltArea) + " m²\n")
		if l.LocalizedFeatures != "" {
			b.WriteString("🔑 " + l.LocalizedFeatures + "\n")
		}
		b.WriteString("🔗 " + deref(l.URL))
	}
	return b.String()
}

// writeCore writes the lines shared by both layouts, up to the description
func (f *Formatter) writeCore(b *strings.Builder, l model.LocalizedListing, lang string) {
	b.WriteString("🏡 " + deref(l.Ref) + "\n")
	b.WriteString("📍 " + deref(l.Town) + ", " + deref(l.Province) + ", " + deref(l.Country) + "\n")
	b.WriteString("💰 " + formatNumber(l.Price) + " " + deref(l.Currency) + "\n")
	b.WriteString("🛌 " + formatInt(l.Bedrooms) + " | 🛁 " + formatInt(l.Bathrooms) + " | 🏊 " + yesNo(lang, l.HasPool()) + "\n")
	b.WriteString("✨ " + l.LocalizedDescription + "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
