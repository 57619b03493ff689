package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openaccess-service/internal/sources"
)

func TestClient_Search(t *testing.T) {
	t.Run("sends the bearer token and year clauses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/works", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			q := r.URL.Query().Get("q")
			assert.Contains(t, q, "machine learning")
			assert.Contains(t, q, "yearPublished>=2019")
			assert.Contains(t, q, "yearPublished<=2021")

			fmt.Fprint(w, `{
				"totalHits": 1,
				"results": [
					{
						"id": 123,
						"title": "Open Repositories at Scale",
						"abstract": "How repositories scale.",
						"yearPublished": 2020,
						"doi": "10.5334/example",
						"downloadUrl": "https://core.ac.uk/download/123.pdf",
						"publisher": "Ubiquity Press",
						"authors": [{"name": "Dana Scholar"}],
						"language": {"code": "en", "name": "English"}
					}
				]
			}`)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, APIKey: "secret", Enabled: true})
		result, err := client.Search(context.Background(), sources.SearchParams{
			Query:     "machine learning",
			YearStart: 2019,
			YearEnd:   2021,
		})
		require.NoError(t, err)
		require.Len(t, result.Documents, 1)

		doc := result.Documents[0]
		assert.Equal(t, "Open Repositories at Scale", doc.Title)
		assert.Equal(t, "https://core.ac.uk/download/123.pdf", doc.FullTextURL)
		assert.Equal(t, "10.5334/example", doc.DOI)
		assert.Equal(t, "Ubiquity Press", doc.Publisher)
		assert.Equal(t, "en", doc.Language)
	})

	t.Run("sends no Authorization header without a key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, present := r.Header["Authorization"]
			assert.False(t, present, "anonymous requests must not carry an empty bearer token")
			fmt.Fprint(w, `{"totalHits": 0, "results": []}`)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, Enabled: true})
		result, err := client.Search(context.Background(), sources.SearchParams{Query: "anything"})
		require.NoError(t, err)
		assert.Empty(t, result.Documents)
	})

	t.Run("drops records without a download URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"totalHits": 2,
				"results": [
					{"id": 1, "title": "Metadata Only"},
					{"id": 2, "title": "Linked", "links": [{"type": "download", "url": "https://core.ac.uk/download/2.pdf"}]}
				]
			}`)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, APIKey: "secret", Enabled: true})
		result, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.NoError(t, err)
		require.Len(t, result.Documents, 1)
		assert.Equal(t, "Linked", result.Documents[0].Title)
	})
}
