package doab

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

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/search", r.URL.Path)
		assert.Equal(t, "metadata", r.URL.Query().Get("expand"))
		fmt.Fprint(w, `[
			{
				"handle": "20.500.12854/12345",
				"name": "Open Science in Practice",
				"metadata": [
					{"key": "dc.title", "value": "Open Science in Practice"},
					{"key": "dc.contributor.author", "value": "Kim, Jordan"},
					{"key": "dc.contributor.author", "value": "Osei, Ama"},
					{"key": "dc.date.issued", "value": "2022-03-01"},
					{"key": "dc.description.abstract", "value": "How open science works."},
					{"key": "publisher.name", "value": "Open Books Press"},
					{"key": "oapen.licence", "value": "CC BY 4.0"},
					{"key": "dc.identifier.isbn", "value": "9789463012345"},
					{"key": "dc.subject.other", "value": "open science"}
				]
			},
			{"handle": "", "name": "No Handle", "metadata": []}
		]`)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Enabled: true})
	result, err := client.Search(context.Background(), sources.SearchParams{Query: "open science"})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1, "handleless items are dropped")

	doc := result.Documents[0]
	assert.Equal(t, "Open Science in Practice", doc.Title)
	assert.Equal(t, []string{"Kim, Jordan", "Osei, Ama"}, doc.Authors)
	assert.Equal(t, "2022", doc.Year)
	assert.Equal(t, server.URL+"/handle/20.500.12854/12345", doc.FullTextURL)
	assert.Equal(t, "CC BY 4.0", doc.License)
	assert.Equal(t, "Open Books Press", doc.Publisher)
	assert.Equal(t, "9789463012345", doc.ISBN)
	assert.Equal(t, domain.ContentTypeBook, doc.ContentType)
}

func TestClient_GetByID(t *testing.T) {
	client := New(Config{Enabled: true})
	_, err := client.GetByID(context.Background(), "20.500.12854/12345")
	assert.ErrorIs(t, err, domain.ErrNotSupported)
}
