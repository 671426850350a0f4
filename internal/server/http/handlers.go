package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chemcanvas/scholar-gateway/internal/domain"
	"github.com/chemcanvas/scholar-gateway/internal/observability"
	"github.com/chemcanvas/scholar-gateway/internal/scholar"
)

// Per-endpoint result limits.
const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50

	defaultAuthorLimit = 5
	maxAuthorLimit     = 20

	defaultCitationLimit = 20
	maxCitationLimit     = 100

	defaultSimilarLimit = 10
	maxSimilarLimit     = 30

	// similarKeywordTokens is the number of leading title tokens used to
	// build the keyword query for similar-paper lookups.
	similarKeywordTokens = 5
)

// searchPublications handles GET /search/publications.
// It streams results from the scholar source up to the requested limit and
// normalizes each without detail expansion.
func (s *Server) searchPublications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeValidationError(w, domain.NewValidationError("query", "query parameter is required"))
		return
	}
	limit, err := parseLimitParam(r, defaultSearchLimit, maxSearchLimit)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	start := time.Now()
	s.recordSearchStarted("search_publications")

	it := s.provider.SearchPublications(query)
	publications := make([]*domain.Publication, 0, limit)
	for len(publications) < limit {
		raw, err := it.Next(ctx)
		if errors.Is(err, scholar.ErrIteratorDone) {
			break
		}
		if err != nil {
			s.recordSearchFailed("search_publications", start)
			s.logSearchError(ctx, "search_publications", query, err)
			writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Search failed: %s", err))
			return
		}
		publications = append(publications, scholar.Normalize(ctx, s.provider, raw, false))
	}

	s.recordSearchCompleted("search_publications", len(publications), start)
	writeJSON(w, http.StatusOK, searchResult{
		Publications: publications,
		TotalResults: len(publications),
		Query:        query,
	})
}

// searchAuthors handles GET /search/author.
func (s *Server) searchAuthors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeValidationError(w, domain.NewValidationError("name", "name parameter is required"))
		return
	}
	limit, err := parseLimitParam(r, defaultAuthorLimit, maxAuthorLimit)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	start := time.Now()
	s.recordSearchStarted("search_author")

	it := s.provider.SearchAuthors(name)
	authors := make([]domain.Author, 0, limit)
	for len(authors) < limit {
		raw, err := it.Next(ctx)
		if errors.Is(err, scholar.ErrIteratorDone) {
			break
		}
		if err != nil {
			s.recordSearchFailed("search_author", start)
			s.logSearchError(ctx, "search_author", name, err)
			writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Author search failed: %s", err))
			return
		}
		authors = append(authors, rawAuthorToDomain(raw))
	}

	s.recordSearchCompleted("search_author", len(authors), start)
	writeJSON(w, http.StatusOK, authorSearchResult{
		Authors: authors,
		Query:   name,
	})
}

// getCitations handles GET /citations.
// It resolves the title to the first matching publication, expands it, and
// returns the papers citing it.
func (s *Server) getCitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeValidationError(w, domain.NewValidationError("title", "title parameter is required"))
		return
	}
	limit, err := parseLimitParam(r, defaultCitationLimit, maxCitationLimit)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	start := time.Now()
	s.recordSearchStarted("citations")

	paper, found, err := s.resolveFirst(ctx, title)
	if err != nil {
		s.recordSearchFailed("citations", start)
		s.logPublicationError(ctx, "citations", title, err)
		writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get citations: %s", err))
		return
	}
	if !found {
		s.recordSearchFailed("citations", start)
		writeDetailError(w, http.StatusNotFound, "Paper not found")
		return
	}

	filled, err := s.provider.Fill(ctx, paper)
	if err != nil {
		s.recordSearchFailed("citations", start)
		s.logPublicationError(ctx, "citations", title, err)
		writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get citations: %s", err))
		return
	}

	it := s.provider.CitedBy(filled)
	citing := make([]*domain.Publication, 0, limit)
	for len(citing) < limit {
		raw, nextErr := it.Next(ctx)
		if errors.Is(nextErr, scholar.ErrIteratorDone) {
			break
		}
		if nextErr != nil {
			s.recordSearchFailed("citations", start)
			s.logPublicationError(ctx, "citations", title, nextErr)
			writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get citations: %s", nextErr))
			return
		}
		citing = append(citing, scholar.Normalize(ctx, s.provider, raw, false))
	}

	total := filled.NumCitations
	if total == 0 {
		total = len(citing)
	}
	originalTitle := filled.Title()
	if originalTitle == "" {
		originalTitle = title
	}

	s.recordSearchCompleted("citations", len(citing), start)
	writeJSON(w, http.StatusOK, citationResult{
		CitingPapers:   citing,
		TotalCitations: total,
		OriginalTitle:  originalTitle,
	})
}

// getSimilarPapers handles GET /similar.
// It resolves the title, builds a keyword query from the leading title
// tokens, and returns matches excluding the original paper itself.
func (s *Server) getSimilarPapers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeValidationError(w, domain.NewValidationError("title", "title parameter is required"))
		return
	}
	limit, err := parseLimitParam(r, defaultSimilarLimit, maxSimilarLimit)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	start := time.Now()
	s.recordSearchStarted("similar")

	paper, found, err := s.resolveFirst(ctx, title)
	if err != nil {
		s.recordSearchFailed("similar", start)
		s.logPublicationError(ctx, "similar", title, err)
		writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to find similar papers: %s", err))
		return
	}
	if !found {
		s.recordSearchFailed("similar", start)
		writeDetailError(w, http.StatusNotFound, "Paper not found")
		return
	}

	originalTitle := paper.Title()
	if originalTitle == "" {
		originalTitle = title
	}

	tokens := strings.Fields(originalTitle)
	if len(tokens) > similarKeywordTokens {
		tokens = tokens[:similarKeywordTokens]
	}
	keywords := strings.Join(tokens, " ")

	it := s.provider.SearchPublications(keywords)
	similar := make([]*domain.Publication, 0, limit)
	// Examine one extra candidate so the original paper can be skipped
	// without shrinking the result set.
	for i := 0; i < limit+1; i++ {
		raw, nextErr := it.Next(ctx)
		if errors.Is(nextErr, scholar.ErrIteratorDone) {
			break
		}
		if nextErr != nil {
			s.recordSearchFailed("similar", start)
			s.logPublicationError(ctx, "similar", title, nextErr)
			writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to find similar papers: %s", nextErr))
			return
		}
		if strings.EqualFold(raw.Title(), originalTitle) {
			continue
		}
		similar = append(similar, scholar.Normalize(ctx, s.provider, raw, false))
	}
	if len(similar) > limit {
		similar = similar[:limit]
	}

	s.recordSearchCompleted("similar", len(similar), start)
	writeJSON(w, http.StatusOK, similarPapersResult{
		SimilarPapers: similar,
		OriginalTitle: originalTitle,
	})
}

// getBibtex handles GET /bibtex.
// The upstream citation string is returned verbatim when present; otherwise
// a basic entry is synthesized from the bib fields.
func (s *Server) getBibtex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeValidationError(w, domain.NewValidationError("title", "title parameter is required"))
		return
	}

	start := time.Now()
	s.recordSearchStarted("bibtex")

	paper, found, err := s.resolveFirst(ctx, title)
	if err != nil {
		s.recordSearchFailed("bibtex", start)
		s.logPublicationError(ctx, "bibtex", title, err)
		writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get BibTeX: %s", err))
		return
	}
	if !found {
		s.recordSearchFailed("bibtex", start)
		writeDetailError(w, http.StatusNotFound, "Paper not found")
		return
	}

	filled, err := s.provider.Fill(ctx, paper)
	if err != nil {
		s.recordSearchFailed("bibtex", start)
		s.logPublicationError(ctx, "bibtex", title, err)
		writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get BibTeX: %s", err))
		return
	}

	respTitle := filled.Title()
	if respTitle == "" {
		respTitle = title
	}
	year := scholar.BibFieldString(filled.Bib, "pub_year")
	if year == "" {
		year = scholar.BibFieldString(filled.Bib, "year")
	}
	venue := scholar.BibFieldString(filled.Bib, "venue")
	if venue == "" {
		venue = scholar.BibFieldString(filled.Bib, "journal")
	}

	s.recordSearchCompleted("bibtex", 1, start)
	writeJSON(w, http.StatusOK, bibtexResult{
		Title:   respTitle,
		Bibtex:  scholar.BibtexFor(filled),
		Authors: scholar.BibFieldString(filled.Bib, "author"),
		Year:    year,
		Venue:   venue,
	})
}

// getPublicationDetails handles GET /publication/details.
func (s *Server) getPublicationDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeValidationError(w, domain.NewValidationError("title", "title parameter is required"))
		return
	}

	start := time.Now()
	s.recordSearchStarted("publication_details")

	paper, found, err := s.resolveFirst(ctx, title)
	if err != nil {
		s.recordSearchFailed("publication_details", start)
		s.logPublicationError(ctx, "publication_details", title, err)
		writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get details: %s", err))
		return
	}
	if !found {
		s.recordSearchFailed("publication_details", start)
		writeDetailError(w, http.StatusNotFound, "Paper not found")
		return
	}

	filled, err := s.provider.Fill(ctx, paper)
	if err != nil {
		s.recordSearchFailed("publication_details", start)
		s.logPublicationError(ctx, "publication_details", title, err)
		writeDetailError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get details: %s", err))
		return
	}

	pub := scholar.Normalize(ctx, s.provider, filled, false)

	s.recordSearchCompleted("publication_details", 1, start)
	writeJSON(w, http.StatusOK, rawPublicationToDetails(filled, pub))
}

// resolveFirst issues a publication search and returns the first candidate.
// found is false when the result stream is empty.
func (s *Server) resolveFirst(ctx context.Context, title string) (paper *scholar.RawPublication, found bool, err error) {
	it := s.provider.SearchPublications(title)
	paper, err = it.Next(ctx)
	if errors.Is(err, scholar.ErrIteratorDone) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return paper, true, nil
}

// parseLimitParam extracts and bounds-checks the limit query parameter.
// A value that is not an integer in [1, maxLimit] yields a ValidationError.
func parseLimitParam(r *http.Request, def, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, domain.NewValidationError("limit", fmt.Sprintf("limit must be an integer between 1 and %d", maxLimit))
	}
	return limit, nil
}

func (s *Server) recordSearchStarted(endpoint string) {
	if s.metrics != nil {
		s.metrics.RecordSearchStarted(endpoint)
	}
}

func (s *Server) recordSearchCompleted(endpoint string, resultCount int, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordSearchCompleted(endpoint, resultCount, time.Since(start).Seconds())
	}
}

func (s *Server) recordSearchFailed(endpoint string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordSearchFailed(endpoint, time.Since(start).Seconds())
	}
}

func (s *Server) logSearchError(ctx context.Context, endpoint, query string, err error) {
	logger := observability.WithRequestContext(s.logger, observability.RequestIDFromContext(ctx), endpoint)
	logger = observability.WithSearchContext(logger, query, s.provider.Name())
	logger.Error().Err(err).Msg("scholar request failed")
}

func (s *Server) logPublicationError(ctx context.Context, endpoint, title string, err error) {
	logger := observability.WithRequestContext(s.logger, observability.RequestIDFromContext(ctx), endpoint)
	logger = observability.WithPublicationContext(logger, title)
	logger.Error().Err(err).Msg("scholar request failed")
}
