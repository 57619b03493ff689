package openaccess

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openaccess-service/internal/domain"
)

func TestValidator_DOIPrefix(t *testing.T) {
	v := New()
	ctx := context.Background()

	t.Run("paywall prefix rejects regardless of other fields", func(t *testing.T) {
		doc := &domain.Document{
			Title:       "Deep Work",
			Authors:     []string{"Unknown"},
			DOI:         "10.1007/xyz",
			FullTextURL: "https://arxiv.org/abs/1234.5678",
			License:     "CC-BY 4.0",
		}
		verdict := v.Validate(ctx, doc)

		assert.False(t, verdict.Accepted)
		assert.Contains(t, verdict.Reason, "10.1007")
		assert.Equal(t, StageDOIPrefix, verdict.Stage)
	})

	t.Run("open prefix accepts before URL inspection", func(t *testing.T) {
		doc := &domain.Document{
			Title: "A PLOS paper",
			DOI:   "10.1371/journal.pone.0012345",
		}
		verdict := v.Validate(ctx, doc)

		assert.True(t, verdict.Accepted)
		assert.Contains(t, verdict.Reason, "10.1371")
	})

	t.Run("doi.org and doi: prefixes are normalized", func(t *testing.T) {
		verdict := v.Validate(ctx, &domain.Document{DOI: "https://doi.org/10.1016/j.cell.2020.01.001"})
		assert.False(t, verdict.Accepted)
		assert.Contains(t, verdict.Reason, "10.1016")

		verdict = v.Validate(ctx, &domain.Document{DOI: "doi:10.1371/journal.pbio.1"})
		assert.True(t, verdict.Accepted)
	})
}

func TestValidator_URLDomain(t *testing.T) {
	v := New()
	ctx := context.Background()

	t.Run("allowlisted host accepts without DOI or license", func(t *testing.T) {
		doc := &domain.Document{
			Title:       "Preprint",
			FullTextURL: "https://arxiv.org/pdf/2301.07041",
		}
		verdict := v.Validate(ctx, doc)

		assert.True(t, verdict.Accepted)
		assert.Equal(t, StageURLDomain, verdict.Stage)
		assert.Contains(t, verdict.Reason, "arxiv.org")
	})

	t.Run("subdomain of allowlisted host accepts", func(t *testing.T) {
		verdict := v.Validate(ctx, &domain.Document{FullTextURL: "https://chem.libretexts.org/Bookshelves"})
		assert.True(t, verdict.Accepted)
	})

	t.Run("denylisted host rejects", func(t *testing.T) {
		verdict := v.Validate(ctx, &domain.Document{FullTextURL: "https://www.sciencedirect.com/science/article/pii/S0"})
		assert.False(t, verdict.Accepted)
		assert.Contains(t, verdict.Reason, "sciencedirect.com")
	})

	t.Run("lookalike host does not match allowlist", func(t *testing.T) {
		verdict := v.Validate(ctx, &domain.Document{FullTextURL: "https://notarxiv.net/pdf/1"})
		assert.NotEqual(t, StageURLDomain, verdict.Stage)
	})
}

func TestValidator_EducationalURL(t *testing.T) {
	v := New()
	ctx := context.Background()

	t.Run("edu domain provisionally accepts", func(t *testing.T) {
		verdict := v.Validate(ctx, &domain.Document{FullTextURL: "https://dspace.mit.edu/handle/1721.1/1"})
		assert.True(t, verdict.Accepted)
		assert.Equal(t, StageEduURL, verdict.Stage)
	})

	t.Run("repository path provisionally accepts", func(t *testing.T) {
		verdict := v.Validate(ctx, &domain.Document{FullTextURL: "https://zeta.example.net/repository/item/42"})
		assert.True(t, verdict.Accepted)
	})

	t.Run("paywall domain wins over educational pattern", func(t *testing.T) {
		// Denylist runs first, so a "research" path on a paywall host rejects.
		verdict := v.Validate(ctx, &domain.Document{FullTextURL: "https://www.nature.com/research/article"})
		assert.False(t, verdict.Accepted)
		assert.Equal(t, StageURLDomain, verdict.Stage)
	})
}

func TestValidator_License(t *testing.T) {
	v := New()
	ctx := context.Background()

	t.Run("CC license in metadata accepts with exact reason", func(t *testing.T) {
		doc := &domain.Document{
			Title:       "Open Notes",
			License:     "This work is licensed under CC-BY 4.0",
			FullTextURL: "https://files.unlisted-host.net/notes.pdf",
		}
		verdict := v.Validate(ctx, doc)

		assert.True(t, verdict.Accepted)
		assert.Equal(t, "Creative Commons license detected", verdict.Reason)
		assert.Equal(t, StageLicense, verdict.Stage)
	})

	t.Run("CC marker in abstract accepts", func(t *testing.T) {
		doc := &domain.Document{
			Abstract:    "Distributed under a Creative Commons Attribution license.",
			FullTextURL: "https://files.unlisted-host.net/a.pdf",
		}
		verdict := v.Validate(ctx, doc)
		assert.True(t, verdict.Accepted)
	})

	t.Run("license variants match", func(t *testing.T) {
		for _, lic := range []string{"CC BY-NC-SA", "cc-by", "CC0", "https://creativecommons.org/licenses/by/4.0/", "released into the public domain"} {
			verdict := v.Validate(ctx, &domain.Document{License: lic, FullTextURL: "https://x.net/a"})
			assert.True(t, verdict.Accepted, "license %q should accept", lic)
		}
	})
}

func TestValidator_Journal(t *testing.T) {
	v := New()
	ctx := context.Background()

	verdict := v.Validate(ctx, &domain.Document{
		Journal:     "Frontiers in Microbiology",
		FullTextURL: "https://files.unlisted-host.net/a.pdf",
	})
	assert.True(t, verdict.Accepted)
	assert.Equal(t, StageJournal, verdict.Stage)
}

func TestValidator_Default(t *testing.T) {
	v := New()

	verdict := v.Validate(context.Background(), &domain.Document{
		Title:       "Mystery",
		FullTextURL: "https://files.unlisted-host.net/mystery.pdf",
		Journal:     "Quarterly Review of Mysteries",
	})

	assert.False(t, verdict.Accepted)
	assert.Equal(t, DefaultReason, verdict.Reason)
	assert.Equal(t, StageDefault, verdict.Stage)
}

func TestValidator_HeadCheck(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		var probed bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			probed = true
		}))
		defer server.Close()

		v := New()
		v.Validate(context.Background(), &domain.Document{FullTextURL: server.URL + "/doc.pdf"})
		assert.False(t, probed)
	})

	t.Run("accepts when URL resolves cleanly", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodHead, r.Method)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		v := New(WithHeadCheck(server.Client()))
		verdict := v.Validate(context.Background(), &domain.Document{FullTextURL: server.URL + "/doc.pdf"})

		assert.True(t, verdict.Accepted)
		assert.Equal(t, StageHeadCheck, verdict.Stage)
	})

	t.Run("inconclusive on network failure", func(t *testing.T) {
		v := New(WithHeadCheck(&http.Client{}))
		verdict := v.Validate(context.Background(), &domain.Document{FullTextURL: "http://127.0.0.1:1/doc.pdf"})

		assert.False(t, verdict.Accepted)
		assert.Equal(t, StageDefault, verdict.Stage)
	})
}

// End-to-end: normalizing a record with a null author list and a Springer
// DOI yields a placeholder author and a paywall rejection.
func TestValidator_PaywalledRecordScenario(t *testing.T) {
	doc := &domain.Document{Title: "Deep Work", DOI: "10.1007/xyz"}
	doc.FillDefaults()

	require.Equal(t, []string{domain.PlaceholderAuthor}, doc.Authors)

	verdict := New().Validate(context.Background(), doc)
	assert.False(t, verdict.Accepted)
	assert.Contains(t, verdict.Reason, "10.1007")
}
