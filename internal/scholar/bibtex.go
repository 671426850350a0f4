package scholar

import (
	"fmt"
	"strconv"
	"strings"
)

// BibtexFor returns the citation string for a publication: the one supplied
// by the proxy verbatim when present, otherwise a synthesized entry.
func BibtexFor(raw *RawPublication) string {
	if raw.Bibtex != "" {
		return raw.Bibtex
	}
	return SynthesizeBibtex(raw.Bib)
}

// SynthesizeBibtex builds a basic BibTeX entry from the bib fields.
//
// The entry type is "inproceedings" when a booktitle field is present, "misc"
// when neither journal nor venue fields are present, and "article" otherwise.
// The citation key is the lowercased last token of the first listed author
// joined with the year; missing author data yields the literal "unknown".
// Author and title are always emitted; year and the venue field (booktitle
// for inproceedings, journal otherwise) only when present.
func SynthesizeBibtex(bib map[string]interface{}) string {
	entryType := "article"
	if _, ok := bib["booktitle"]; ok {
		entryType = "inproceedings"
	} else {
		_, hasJournal := bib["journal"]
		_, hasVenue := bib["venue"]
		if !hasJournal && !hasVenue {
			entryType = "misc"
		}
	}

	author := BibFieldString(bib, "author")
	if author == "" {
		author = "Unknown"
	}
	title := BibFieldString(bib, "title")
	if title == "" {
		title = "Unknown"
	}
	year := BibFieldString(bib, "pub_year")
	if year == "" {
		year = BibFieldString(bib, "year")
	}
	venue := BibFieldString(bib, "venue")
	if venue == "" {
		venue = BibFieldString(bib, "journal")
	}
	if venue == "" {
		venue = BibFieldString(bib, "booktitle")
	}

	citeKey := citationKey(author, year)

	var sb strings.Builder
	fmt.Fprintf(&sb, "@%s{%s,\n", entryType, citeKey)
	fmt.Fprintf(&sb, "  author = {%s},\n", author)
	fmt.Fprintf(&sb, "  title = {%s},\n", title)
	if year != "" {
		fmt.Fprintf(&sb, "  year = {%s},\n", year)
	}
	if venue != "" {
		if entryType == "inproceedings" {
			fmt.Fprintf(&sb, "  booktitle = {%s},\n", venue)
		} else {
			fmt.Fprintf(&sb, "  journal = {%s},\n", venue)
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// citationKey builds the cite key from the first author's last name and the
// year. An absent author yields the literal "unknown".
func citationKey(author, year string) string {
	firstAuthor := author
	if idx := strings.Index(author, " and "); idx >= 0 {
		firstAuthor = author[:idx]
	}
	lastName := "unknown"
	if fields := strings.Fields(firstAuthor); len(fields) > 0 {
		lastName = fields[len(fields)-1]
	}
	return strings.ToLower(lastName) + year
}

// BibFieldString returns the bib field under key coerced to a string.
// Scraped records carry years as either strings or numbers.
func BibFieldString(bib map[string]interface{}, key string) string {
	switch v := bib[key].(type) {
	case string:
		return v
	case float64:
		return strconv.Itoa(int(v))
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
