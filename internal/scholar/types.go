package scholar

// RawPublication is a publication record as returned by the scholarly proxy.
// The bib mapping is loosely typed: field values may be strings, numbers, or
// lists depending on how the record was scraped, and any field may be absent.
type RawPublication struct {
	// Bib holds the nested bibliographic fields (title, author, pub_year,
	// year, abstract, venue, journal, booktitle, ...).
	Bib map[string]interface{} `json:"bib"`

	// NumCitations is the citation count known to the scholar service.
	NumCitations int `json:"num_citations"`

	// PubURL is the external link to the publication.
	PubURL string `json:"pub_url"`

	// Bibtex is the formatted citation string, when the proxy supplies one.
	Bibtex string `json:"bibtex"`

	// ScholarBibURL is the citation-service link for the publication.
	ScholarBibURL string `json:"url_scholarbib"`

	// CitedByToken is the opaque token used to page through citing papers.
	// Empty when the publication has no recorded citations.
	CitedByToken string `json:"citedby_url"`

	// Filled reports whether the record has been through detail expansion.
	Filled bool `json:"filled"`
}

// BibString returns the bib field under key as a string, or empty when the
// field is absent or not a string.
func (p *RawPublication) BibString(key string) string {
	if p == nil || p.Bib == nil {
		return ""
	}
	if s, ok := p.Bib[key].(string); ok {
		return s
	}
	return ""
}

// Title returns the bib title, or an empty string when absent.
func (p *RawPublication) Title() string {
	return p.BibString("title")
}

// RawAuthor is an author profile as returned by the scholarly proxy.
type RawAuthor struct {
	// Name is the author's display name.
	Name string `json:"name"`

	// Affiliation is the author's institutional affiliation, if known.
	Affiliation string `json:"affiliation"`

	// ScholarID is the opaque identifier assigned by the scholar service.
	ScholarID string `json:"scholar_id"`

	// CitedBy is the author's total citation count.
	CitedBy int `json:"citedby"`

	// Interests lists the author's declared research interest tags.
	Interests []string `json:"interests"`
}

// publicationPage is one page of publication results from the proxy.
type publicationPage struct {
	// Results contains the raw publication records for this page.
	Results []RawPublication `json:"results"`

	// Next is the start offset for the next page.
	// A value of 0 indicates no more results.
	Next int `json:"next"`

	// Total is the total number of matches, when the proxy reports it.
	Total int `json:"total"`
}

// authorPage is one page of author results from the proxy.
type authorPage struct {
	// Results contains the raw author records for this page.
	Results []RawAuthor `json:"results"`

	// Next is the start offset for the next page.
	// A value of 0 indicates no more results.
	Next int `json:"next"`
}

// errorResponse is an error body from the proxy.
type errorResponse struct {
	// Error is the error message from the proxy.
	Error string `json:"error,omitempty"`

	// Message is an alternative error message field.
	Message string `json:"message,omitempty"`
}
