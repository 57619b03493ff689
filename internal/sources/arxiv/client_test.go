package arxiv

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

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/"
      xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query Results</title>
  <opensearch:totalResults>42</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/2301.07041v1</id>
    <title>Quantum Error
 Correction Surveyed</title>
    <summary>A survey of
 quantum error correction.</summary>
    <published>2023-01-17T18:59:59Z</published>
    <author><name>Alice Example</name></author>
    <author><name>Bob Example</name></author>
    <link href="http://arxiv.org/abs/2301.07041v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2301.07041v1" rel="related" type="application/pdf" title="pdf"/>
    <arxiv:doi>10.1000/survey.2023</arxiv:doi>
    <category term="quant-ph"/>
  </entry>
</feed>`

func TestClient_Search(t *testing.T) {
	t.Run("parses the Atom feed", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/query", r.URL.Path)
			gotQuery = r.URL.Query().Get("search_query")
			w.Header().Set("Content-Type", "application/atom+xml")
			fmt.Fprint(w, atomFixture)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, Enabled: true})
		result, err := client.Search(context.Background(), sources.SearchParams{
			Query:      "quantum error correction",
			YearStart:  2022,
			YearEnd:    2023,
			Discipline: sources.DisciplinePhysics,
		})
		require.NoError(t, err)

		assert.Contains(t, gotQuery, `all:"quantum error correction"`)
		assert.Contains(t, gotQuery, "cat:physics.*")
		assert.Contains(t, gotQuery, "submittedDate:[20220101")
		assert.Contains(t, gotQuery, "20231231")

		assert.Equal(t, 42, result.TotalResults)
		assert.True(t, result.HasMore)
		require.Len(t, result.Documents, 1)

		doc := result.Documents[0]
		assert.Equal(t, "Quantum Error Correction Surveyed", doc.Title, "feed line breaks are collapsed")
		assert.Equal(t, []string{"Alice Example", "Bob Example"}, doc.Authors)
		assert.Equal(t, "A survey of quantum error correction.", doc.Abstract)
		assert.Equal(t, "2023", doc.Year)
		assert.Equal(t, "http://arxiv.org/pdf/2301.07041v1", doc.FullTextURL)
		assert.Equal(t, "10.1000/survey.2023", doc.DOI)
		assert.Equal(t, []string{"quant-ph"}, doc.Subjects)
	})

	t.Run("malformed feed surfaces a parse error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "this is not a feed")
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, Enabled: true})
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		assert.Error(t, err)
	})
}

func TestClient_GetByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2301.07041", r.URL.Query().Get("id_list"))
		fmt.Fprint(w, atomFixture)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Enabled: true})
	doc, err := client.GetByID(context.Background(), "arxiv:2301.07041")
	require.NoError(t, err)
	assert.Equal(t, "Quantum Error Correction Surveyed", doc.Title)
}

func TestPDFLink(t *testing.T) {
	t.Run("derives the PDF link from the abstract page when absent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1234.5678v2</id>
    <title>Linkless Entry</title>
    <link href="http://arxiv.org/abs/1234.5678v2" rel="alternate" type="text/html"/>
  </entry>
</feed>`)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, Enabled: true})
		result, err := client.Search(context.Background(), sources.SearchParams{Query: "x"})
		require.NoError(t, err)
		require.Len(t, result.Documents, 1)
		assert.Equal(t, "http://arxiv.org/pdf/1234.5678v2", result.Documents[0].FullTextURL)
	})
}
