package httpserver

import (
	"github.com/chemcanvas/scholar-gateway/internal/domain"
	"github.com/chemcanvas/scholar-gateway/internal/scholar"
)

// Response types for JSON serialization.

type searchResult struct {
	Publications []*domain.Publication `json:"publications"`
	TotalResults int                   `json:"total_results"`
	Query        string                `json:"query"`
}

type authorSearchResult struct {
	Authors []domain.Author `json:"authors"`
	Query   string          `json:"query"`
}

type citationResult struct {
	CitingPapers   []*domain.Publication `json:"citing_papers"`
	TotalCitations int                   `json:"total_citations"`
	OriginalTitle  string                `json:"original_title"`
}

type similarPapersResult struct {
	SimilarPapers []*domain.Publication `json:"similar_papers"`
	OriginalTitle string                `json:"original_title"`
}

type bibtexResult struct {
	Title   string `json:"title"`
	Bibtex  string `json:"bibtex"`
	Authors string `json:"authors"`
	Year    string `json:"year"`
	Venue   string `json:"venue"`
}

type publicationDetailsResult struct {
	Publication *domain.Publication `json:"publication"`
	RawData     rawPublicationData  `json:"raw_data"`
}

type rawPublicationData struct {
	Bib          map[string]interface{} `json:"bib"`
	NumCitations int                    `json:"num_citations"`
	CitedByURL   string                 `json:"citedby_url"`
	PubURL       string                 `json:"pub_url"`
}

// Converter functions

func rawAuthorToDomain(a *scholar.RawAuthor) domain.Author {
	name := a.Name
	if name == "" {
		name = "Unknown"
	}
	return domain.Author{
		Name:        name,
		Affiliation: a.Affiliation,
		ScholarID:   a.ScholarID,
		CitedBy:     a.CitedBy,
		Interests:   a.Interests,
	}
}

func rawPublicationToDetails(raw *scholar.RawPublication, pub *domain.Publication) publicationDetailsResult {
	bib := raw.Bib
	if bib == nil {
		bib = map[string]interface{}{}
	}
	return publicationDetailsResult{
		Publication: pub,
		RawData: rawPublicationData{
			Bib:          bib,
			NumCitations: raw.NumCitations,
			CitedByURL:   raw.CitedByToken,
			PubURL:       raw.PubURL,
		},
	}
}
