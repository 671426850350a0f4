// Package domain defines the core data types exchanged by the scholar gateway.
package domain

// UnknownTitle is the placeholder title used when a source record carries none.
const UnknownTitle = "Unknown Title"

// Publication is a normalized bibliographic record. It is constructed once per
// request from whatever the upstream scholar capability returned and is never
// persisted; duplicate titles may appear across calls.
type Publication struct {
	// Title is the publication title. Defaults to UnknownTitle when the
	// source record carries no title.
	Title string `json:"title"`

	// Authors is the ordered list of author names.
	Authors []string `json:"authors"`

	// Year is the publication year. Nil when the source value is absent
	// or not numeric.
	Year *int `json:"year"`

	// Abstract is the publication abstract, possibly empty.
	Abstract string `json:"abstract"`

	// Venue is the publication venue, resolved by first-non-empty
	// precedence across venue, journal and booktitle.
	Venue string `json:"venue"`

	// Citations is the number of citing papers known to the source.
	Citations int `json:"citations"`

	// URL is the external link to the publication.
	URL string `json:"url"`

	// Bibtex is the raw citation string supplied by the source, if any.
	Bibtex string `json:"bibtex"`

	// ScholarURL is the citation-service link for the publication.
	ScholarURL string `json:"scholar_url"`
}

// Author is a normalized author profile from the scholar capability.
type Author struct {
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
