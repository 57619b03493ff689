package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openaccess-service/internal/domain"
	"github.com/openshelf/openaccess-service/internal/sources"
)

const esearchFixture = `<?xml version="1.0" encoding="UTF-8"?>
<eSearchResult>
  <Count>2</Count>
  <RetMax>2</RetMax>
  <RetStart>0</RetStart>
  <IdList>
    <Id>200002</Id>
    <Id>200001</Id>
  </IdList>
</eSearchResult>`

func efetchFixture(pmids ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><PubmedArticleSet>`)
	for _, pmid := range pmids {
		fmt.Fprintf(&b, `
<PubmedArticle>
  <MedlineCitation>
    <PMID>%[1]s</PMID>
    <Article>
      <ArticleTitle>Article %[1]s</ArticleTitle>
      <Abstract><AbstractText>Findings for %[1]s.</AbstractText></Abstract>
      <AuthorList>
        <Author><LastName>Curie</LastName><ForeName>Marie</ForeName></Author>
        <Author><CollectiveName>The Study Group</CollectiveName></Author>
      </AuthorList>
      <Journal>
        <Title>Journal of Examples</Title>
        <JournalIssue><PubDate><Year>2021</Year></PubDate></JournalIssue>
      </Journal>
      <Language>eng</Language>
    </Article>
  </MedlineCitation>
  <PubmedData>
    <ArticleIdList>
      <ArticleId IdType="pubmed">%[1]s</ArticleId>
      <ArticleId IdType="doi">10.1000/example.%[1]s</ArticleId>
      <ArticleId IdType="pmc">PMC%[1]s</ArticleId>
    </ArticleIdList>
  </PubmedData>
</PubmedArticle>`, pmid)
	}
	b.WriteString(`</PubmedArticleSet>`)
	return b.String()
}

func newTwoStepServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
			fmt.Fprint(w, esearchFixture)
		case "/efetch.fcgi":
			// Serve records out of esearch order on purpose.
			assert.Equal(t, "200002,200001", r.URL.Query().Get("id"))
			fmt.Fprint(w, efetchFixture("200001", "200002"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestClient_Search(t *testing.T) {
	t.Run("runs the two-step protocol preserving esearch order", func(t *testing.T) {
		server := newTwoStepServer(t)
		defer server.Close()

		client := New(Config{BaseURL: server.URL, Enabled: true})
		result, err := client.Search(context.Background(), sources.SearchParams{Query: "crispr"})
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalResults)
		require.Len(t, result.Documents, 2)
		assert.Equal(t, "Article 200002", result.Documents[0].Title, "relevance order from esearch wins")
		assert.Equal(t, "Article 200001", result.Documents[1].Title)

		doc := result.Documents[0]
		assert.Equal(t, []string{"Marie Curie", "The Study Group"}, doc.Authors)
		assert.Equal(t, "Findings for 200002.", doc.Abstract)
		assert.Equal(t, "2021", doc.Year)
		assert.Equal(t, "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC200002/", doc.FullTextURL)
		assert.Equal(t, "10.1000/example.200002", doc.DOI)
		assert.Equal(t, "Journal of Examples", doc.Journal)
		assert.Equal(t, "eng", doc.Language)
	})

	t.Run("builds the date-range and free-full-text terms", func(t *testing.T) {
		var gotTerm string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/esearch.fcgi" {
				gotTerm = r.URL.Query().Get("term")
			}
			fmt.Fprint(w, `<?xml version="1.0"?><eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, Enabled: true})
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "crispr", YearStart: 2018, YearEnd: 2020})
		require.NoError(t, err)

		assert.Contains(t, gotTerm, "2018:2020[dp]")
		assert.Contains(t, gotTerm, "pubmed pmc[sb]")
	})

	t.Run("empty esearch result skips efetch", func(t *testing.T) {
		var efetchCalled bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/efetch.fcgi" {
				efetchCalled = true
			}
			fmt.Fprint(w, `<?xml version="1.0"?><eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, Enabled: true})
		result, err := client.Search(context.Background(), sources.SearchParams{Query: "no matches"})
		require.NoError(t, err)
		assert.Empty(t, result.Documents)
		assert.False(t, efetchCalled)
	})

	t.Run("caps retmax at the ID batch limit", func(t *testing.T) {
		var gotRetmax string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRetmax = r.URL.Query().Get("retmax")
			fmt.Fprint(w, `<?xml version="1.0"?><eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, Enabled: true})
		_, err := client.Search(context.Background(), sources.SearchParams{Query: "x", Limit: 5000})
		require.NoError(t, err)
		assert.Equal(t, "200", gotRetmax)
	})
}

func TestClient_GetByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		fmt.Fprint(w, efetchFixture("31452104"))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Enabled: true})
	doc, err := client.GetByID(context.Background(), "31452104")
	require.NoError(t, err)
	assert.Equal(t, "Article 31452104", doc.Title)
}

func TestArticleToDocument(t *testing.T) {
	t.Run("nil without a PMC identifier", func(t *testing.T) {
		article := &PubmedArticle{}
		article.MedlineCitation.Article.Title = "Paywalled Article"
		article.PubmedData.ArticleIDs.IDs = []ArticleID{{IDType: "doi", Value: "10.1016/x"}}
		assert.Nil(t, articleToDocument(article))
	})

	t.Run("nil without a title", func(t *testing.T) {
		article := &PubmedArticle{}
		article.PubmedData.ArticleIDs.IDs = []ArticleID{{IDType: "pmc", Value: "PMC1"}}
		assert.Nil(t, articleToDocument(article))
	})

	t.Run("year from MedlineDate free text", func(t *testing.T) {
		article := &PubmedArticle{}
		article.MedlineCitation.Article.Title = "Dated"
		article.MedlineCitation.Article.Journal.JournalIssue.PubDate.MedlineDate = "1998 Jul-Aug"
		article.PubmedData.ArticleIDs.IDs = []ArticleID{{IDType: "pmc", Value: "PMC1"}}

		doc := articleToDocument(article)
		require.NotNil(t, doc)
		assert.Equal(t, "1998", doc.Year)
		assert.Equal(t, []string{domain.PlaceholderAuthor}, doc.Authors)
	})
}
