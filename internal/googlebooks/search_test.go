package googlebooks

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readshelfapp/readshelf-server/internal/domain"
)

const volumesFixture = `{
	"totalItems": 2,
	"items": [
		{
			"id": "vol-1",
			"volumeInfo": {
				"title": "Dune",
				"authors": ["Frank Herbert"],
				"description": "Spice and sand.",
				"imageLinks": {"thumbnail": "http://books.google.com/covers/dune.jpg"},
				"industryIdentifiers": [
					{"type": "ISBN_13", "identifier": "9780441172719"},
					{"type": "ISBN_10", "identifier": "0441172717"}
				],
				"averageRating": 4.5,
				"ratingsCount": 4200
			}
		},
		{
			"id": "vol-2",
			"volumeInfo": {
				"title": "Mystery Pamphlet"
			}
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient("", slog.New(slog.DiscardHandler), WithBaseURL(srv.URL))
}

func TestSearch_ParsesCandidates(t *testing.T) {
	var gotQuery, gotMax string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("maxResults")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(volumesFixture))
	})

	results, err := client.Search(context.Background(), "dune")
	require.NoError(t, err)

	assert.Equal(t, "dune", gotQuery)
	assert.Equal(t, "20", gotMax)

	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "vol-1", first.ExternalID)
	assert.Equal(t, "Dune", first.Title)
	assert.Equal(t, "Frank Herbert", first.PrimaryAuthor())
	// Thumbnail is upgraded to https.
	assert.Equal(t, "https://books.google.com/covers/dune.jpg", first.CoverURL)
	assert.Equal(t, "9780441172719", first.ISBN())
	assert.InDelta(t, 4.5, first.AverageRating, 0.001)

	// A volume with no artwork gets the fallback cover and the unknown author.
	second := results[1]
	assert.Equal(t, fallbackCoverURL, second.CoverURL)
	assert.Equal(t, domain.UnknownAuthor, second.PrimaryAuthor())
}

func TestSearch_EmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"totalItems": 0}`))
	})

	results, err := client.Search(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "dune")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestSearch_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"items": "not-an-array"`))
	})

	_, err := client.Search(context.Background(), "dune")
	require.Error(t, err)
}
