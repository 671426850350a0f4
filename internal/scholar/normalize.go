package scholar

import (
	"context"
	"strconv"
	"strings"

	"github.com/chemcanvas/scholar-gateway/internal/domain"
)

// salvageTitle is the title used when normalization fails partway through and
// only the raw title (if any) can be recovered.
const salvageTitle = "Unknown"

// Normalize converts a raw proxy record into a domain Publication. When
// fillDetails is true the record is first run through detail expansion via p.
//
// Normalization never fails: malformed fields degrade to their documented
// defaults, and any expansion error or panic yields a minimal publication
// carrying whatever title could be salvaged.
func Normalize(ctx context.Context, p Provider, raw *RawPublication, fillDetails bool) (pub *domain.Publication) {
	defer func() {
		if r := recover(); r != nil {
			pub = salvage(raw)
		}
	}()

	if fillDetails && p != nil {
		filled, err := p.Fill(ctx, raw)
		if err != nil {
			return salvage(raw)
		}
		raw = filled
	}

	title := raw.BibString("title")
	if title == "" {
		title = domain.UnknownTitle
	}

	return &domain.Publication{
		Title:      title,
		Authors:    parseAuthors(raw.Bib["author"]),
		Year:       parseYear(raw.Bib),
		Abstract:   raw.BibString("abstract"),
		Venue:      resolveVenue(raw.Bib),
		Citations:  raw.NumCitations,
		URL:        raw.PubURL,
		Bibtex:     raw.Bibtex,
		ScholarURL: raw.ScholarBibURL,
	}
}

// salvage builds the minimal publication returned when normalization fails:
// whatever title is present, no authors, no year.
func salvage(raw *RawPublication) *domain.Publication {
	title := raw.BibString("title")
	if title == "" {
		title = salvageTitle
	}
	return &domain.Publication{
		Title:   title,
		Authors: []string{},
	}
}

// parseAuthors normalizes the author field, which may be a single
// " and "-delimited string or an already-separated list, into an ordered list
// of trimmed names. Unknown shapes yield an empty list.
func parseAuthors(v interface{}) []string {
	switch authors := v.(type) {
	case string:
		if authors == "" {
			return []string{}
		}
		parts := strings.Split(authors, " and ")
		names := make([]string, 0, len(parts))
		for _, part := range parts {
			names = append(names, strings.TrimSpace(part))
		}
		return names
	case []interface{}:
		names := make([]string, 0, len(authors))
		for _, a := range authors {
			if s, ok := a.(string); ok {
				names = append(names, strings.TrimSpace(s))
			}
		}
		return names
	case []string:
		names := make([]string, 0, len(authors))
		for _, a := range authors {
			names = append(names, strings.TrimSpace(a))
		}
		return names
	default:
		return []string{}
	}
}

// parseYear resolves the year from pub_year or year, first non-empty wins.
// Non-numeric values are discarded rather than surfaced as errors.
func parseYear(bib map[string]interface{}) *int {
	if bib == nil {
		return nil
	}
	for _, key := range []string{"pub_year", "year"} {
		year := asYear(bib[key])
		if year != nil {
			return year
		}
	}
	return nil
}

// asYear coerces a bib field value into a year. JSON decoding yields float64
// for numbers; scraped records often carry years as strings.
func asYear(v interface{}) *int {
	switch y := v.(type) {
	case float64:
		if y == 0 {
			return nil
		}
		year := int(y)
		return &year
	case int:
		if y == 0 {
			return nil
		}
		return &y
	case string:
		s := strings.TrimSpace(y)
		if s == "" {
			return nil
		}
		year, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		return &year
	default:
		return nil
	}
}

// resolveVenue picks the first non-empty of venue, journal, booktitle.
func resolveVenue(bib map[string]interface{}) string {
	if bib == nil {
		return ""
	}
	for _, key := range []string{"venue", "journal", "booktitle"} {
		if s, ok := bib[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
