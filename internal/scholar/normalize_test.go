package scholar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemcanvas/scholar-gateway/internal/domain"
)

func TestNormalize_FullRecord(t *testing.T) {
	raw := &RawPublication{
		Bib: map[string]interface{}{
			"title":    "Graph Neural Networks for Molecules",
			"author":   "Alice Smith and Bob Jones and Carol White",
			"pub_year": "2021",
			"abstract": "We study message passing on molecular graphs.",
			"venue":    "NeurIPS",
		},
		NumCitations:  42,
		PubURL:        "https://example.org/paper",
		Bibtex:        "@article{smith2021,}",
		ScholarBibURL: "https://scholar.example.org/bib?q=1",
	}

	pub := Normalize(context.Background(), nil, raw, false)

	require.NotNil(t, pub)
	assert.Equal(t, "Graph Neural Networks for Molecules", pub.Title)
	assert.Equal(t, []string{"Alice Smith", "Bob Jones", "Carol White"}, pub.Authors)
	require.NotNil(t, pub.Year)
	assert.Equal(t, 2021, *pub.Year)
	assert.Equal(t, "We study message passing on molecular graphs.", pub.Abstract)
	assert.Equal(t, "NeurIPS", pub.Venue)
	assert.Equal(t, 42, pub.Citations)
	assert.Equal(t, "https://example.org/paper", pub.URL)
	assert.Equal(t, "@article{smith2021,}", pub.Bibtex)
	assert.Equal(t, "https://scholar.example.org/bib?q=1", pub.ScholarURL)
}

func TestNormalize_MissingAuthors(t *testing.T) {
	raw := &RawPublication{
		Bib: map[string]interface{}{"title": "No Authors Here"},
	}

	pub := Normalize(context.Background(), nil, raw, false)

	require.NotNil(t, pub)
	assert.Equal(t, []string{}, pub.Authors)
}

func TestNormalize_AuthorsAsList(t *testing.T) {
	// JSON array fields decode as []interface{}.
	raw := &RawPublication{
		Bib: map[string]interface{}{
			"title":  "List Authors",
			"author": []interface{}{" Alice Smith ", "Bob Jones"},
		},
	}

	pub := Normalize(context.Background(), nil, raw, false)

	assert.Equal(t, []string{"Alice Smith", "Bob Jones"}, pub.Authors)
}

func TestNormalize_YearHandling(t *testing.T) {
	tests := []struct {
		name string
		bib  map[string]interface{}
		want *int
	}{
		{
			name: "pub_year wins over year",
			bib:  map[string]interface{}{"pub_year": "2020", "year": "1999"},
			want: intPtr(2020),
		},
		{
			name: "falls back to year when pub_year absent",
			bib:  map[string]interface{}{"year": "1999"},
			want: intPtr(1999),
		},
		{
			name: "falls back to year when pub_year empty",
			bib:  map[string]interface{}{"pub_year": "", "year": "2005"},
			want: intPtr(2005),
		},
		{
			name: "non-numeric year is discarded",
			bib:  map[string]interface{}{"pub_year": "forthcoming"},
			want: nil,
		},
		{
			name: "numeric json value",
			bib:  map[string]interface{}{"pub_year": float64(2018)},
			want: intPtr(2018),
		},
		{
			name: "absent year",
			bib:  map[string]interface{}{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := Normalize(context.Background(), nil, &RawPublication{Bib: tt.bib}, false)
			if tt.want == nil {
				assert.Nil(t, pub.Year)
			} else {
				require.NotNil(t, pub.Year)
				assert.Equal(t, *tt.want, *pub.Year)
			}
		})
	}
}

func TestNormalize_VenuePrecedence(t *testing.T) {
	raw := &RawPublication{
		Bib: map[string]interface{}{
			"title":   "Venue Precedence",
			"venue":   "ICML",
			"journal": "JMLR",
		},
	}

	pub := Normalize(context.Background(), nil, raw, false)
	assert.Equal(t, "ICML", pub.Venue)

	raw.Bib["venue"] = ""
	pub = Normalize(context.Background(), nil, raw, false)
	assert.Equal(t, "JMLR", pub.Venue)

	raw.Bib["journal"] = ""
	raw.Bib["booktitle"] = "Proceedings of Something"
	pub = Normalize(context.Background(), nil, raw, false)
	assert.Equal(t, "Proceedings of Something", pub.Venue)
}

func TestNormalize_DefaultTitle(t *testing.T) {
	pub := Normalize(context.Background(), nil, &RawPublication{}, false)
	assert.Equal(t, domain.UnknownTitle, pub.Title)
}

func TestNormalize_FillFailureSalvages(t *testing.T) {
	raw := &RawPublication{
		Bib: map[string]interface{}{
			"title":    "Partially Broken",
			"author":   "Alice Smith",
			"pub_year": "2020",
		},
	}
	p := &fillErrorProvider{err: errors.New("proxy exploded")}

	pub := Normalize(context.Background(), p, raw, true)

	require.NotNil(t, pub)
	assert.Equal(t, "Partially Broken", pub.Title)
	assert.Empty(t, pub.Authors)
	assert.Nil(t, pub.Year)
}

func TestNormalize_FillExpandsRecord(t *testing.T) {
	stub := &RawPublication{
		Bib: map[string]interface{}{"title": "Stub"},
	}
	filled := &RawPublication{
		Bib: map[string]interface{}{
			"title":    "Stub",
			"author":   "Alice Smith",
			"abstract": "Now with an abstract.",
		},
		NumCitations: 7,
	}
	p := &fillErrorProvider{filled: filled}

	pub := Normalize(context.Background(), p, stub, true)

	assert.Equal(t, []string{"Alice Smith"}, pub.Authors)
	assert.Equal(t, "Now with an abstract.", pub.Abstract)
	assert.Equal(t, 7, pub.Citations)
}

// fillErrorProvider is a Provider stub whose Fill returns a fixed record or error.
type fillErrorProvider struct {
	filled *RawPublication
	err    error
}

func (p *fillErrorProvider) SearchPublications(string) PublicationIterator { return nil }
func (p *fillErrorProvider) SearchAuthors(string) AuthorIterator          { return nil }
func (p *fillErrorProvider) CitedBy(*RawPublication) PublicationIterator  { return nil }
func (p *fillErrorProvider) Name() string                                 { return "stub" }

func (p *fillErrorProvider) Fill(_ context.Context, _ *RawPublication) (*RawPublication, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.filled, nil
}

func intPtr(v int) *int { return &v }
