package semanticscholar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openaccess-service/internal/domain"
	"github.com/openshelf/openaccess-service/internal/sources"
)

func newTestClient(serverURL string) *Client {
	return New(Config{BaseURL: serverURL, Enabled: true, APIKey: "test-key"})
}

func TestClient_Search(t *testing.T) {
	t.Run("maps papers onto canonical documents", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/graph/v1/paper/search", r.URL.Path)
			assert.Equal(t, "transformer models", r.URL.Query().Get("query"))
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
			_, hasOAFilter := r.URL.Query()["openAccessPdf"]
			assert.True(t, hasOAFilter, "the open access PDF filter is always requested")

			fmt.Fprint(w, `{
				"total": 1,
				"offset": 0,
				"data": [
					{
						"paperId": "abc123",
						"title": "Attention Is All You Need",
						"abstract": "<p>The dominant sequence transduction models...</p>",
						"year": 2017,
						"citationCount": 90000,
						"venue": "NeurIPS",
						"externalIds": {"DOI": "10.48550/ARXIV.1706.03762"},
						"openAccessPdf": {"url": "https://arxiv.org/pdf/1706.03762", "status": "GREEN"},
						"isOpenAccess": true,
						"authors": [{"authorId": "1", "name": "Ashish Vaswani"}],
						"fieldsOfStudy": ["Computer Science"]
					}
				]
			}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		result, err := client.Search(context.Background(), sources.SearchParams{Query: "transformer models"})
		require.NoError(t, err)
		require.Len(t, result.Documents, 1)

		doc := result.Documents[0]
		assert.Equal(t, "Attention Is All You Need", doc.Title)
		assert.Equal(t, []string{"Ashish Vaswani"}, doc.Authors)
		assert.Equal(t, "The dominant sequence transduction models...", doc.Abstract, "markup is stripped")
		assert.Equal(t, "2017", doc.Year)
		assert.Equal(t, "https://arxiv.org/pdf/1706.03762", doc.FullTextURL)
		assert.Equal(t, "10.48550/arxiv.1706.03762", doc.DOI, "DOI is lowercased")
		assert.Equal(t, "NeurIPS", doc.Journal)
	})

	t.Run("sends the year range filter", func(t *testing.T) {
		var gotYear string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotYear = r.URL.Query().Get("year")
			fmt.Fprint(w, `{"total": 0, "data": []}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x", YearStart: 2019, YearEnd: 2022})
		require.NoError(t, err)
		assert.Equal(t, "2019-2022", gotYear)

		_, err = client.Search(context.Background(), sources.SearchParams{Query: "x", YearStart: 2019})
		require.NoError(t, err)
		assert.Equal(t, "2019-", gotYear, "open-ended ranges leave one side empty")
	})

	t.Run("drops records without an open access link", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"total": 2,
				"data": [
					{"paperId": "a", "title": "Paywalled", "isOpenAccess": false},
					{"paperId": "b", "title": "Free", "openAccessPdf": {"url": "https://example.net/b.pdf"}}
				]
			}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		result, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.NoError(t, err)
		require.Len(t, result.Documents, 1)
		assert.Equal(t, "Free", result.Documents[0].Title)
	})

	t.Run("non-2xx surfaces a typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestClient_GetByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graph/v1/paper/abc123", r.URL.Path)
		fmt.Fprint(w, `{
			"paperId": "abc123",
			"title": "Attention Is All You Need",
			"openAccessPdf": {"url": "https://arxiv.org/pdf/1706.03762"}
		}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	doc, err := client.GetByID(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", doc.Title)
	assert.Equal(t, []string{domain.PlaceholderAuthor}, doc.Authors)
	assert.Equal(t, domain.PlaceholderAbstract, doc.Abstract)
	assert.Equal(t, domain.UnknownYear, doc.Year)
}

func TestPaperToDocument(t *testing.T) {
	t.Run("nil on missing title", func(t *testing.T) {
		assert.Nil(t, paperToDocument(&Paper{
			OpenAccessPdf: &OpenAccessPdf{URL: "https://example.net/x.pdf"},
		}))
	})

	t.Run("open access flag with DOI falls back to the DOI URL", func(t *testing.T) {
		doc := paperToDocument(&Paper{
			Title:        "Fallback",
			IsOpenAccess: true,
			ExternalIDs:  &ExternalIDs{DOI: "10.7717/peerj.4375"},
		})
		require.NotNil(t, doc)
		assert.Equal(t, "https://doi.org/10.7717/peerj.4375", doc.FullTextURL)
	})
}
