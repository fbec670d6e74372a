package googlebooks

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/readshelfapp/readshelf-server/internal/domain"
)

const (
	// maxResults caps a search page. One page per query; no pagination.
	maxResults = 20

	// responseFields trims the payload to the fields the engine consumes.
	responseFields = "items(id,volumeInfo(title,authors,publishedDate,description,imageLinks,industryIdentifiers,averageRating,ratingsCount))"

	// fallbackCoverURL stands in when a volume carries no thumbnail.
	fallbackCoverURL = "https://images.unsplash.com/photo-1543002588-bfa74002ed7e?w=400"
)

// Search queries Google Books and returns up to maxResults candidates in
// ranked order. Non-2xx and malformed responses surface as a single opaque
// failure; callers decide how to present it.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchCandidate, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("fields", responseFields)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	searchURL := c.baseURL + "?" + params.Encode()

	c.logger.Debug("searching Google Books",
		"query", query,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	var volumes volumesResponse
	if err := json.UnmarshalRead(resp.Body, &volumes); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	c.logger.Debug("Google Books search results",
		"query", query,
		"count", len(volumes.Items),
	)

	results := make([]domain.SearchCandidate, 0, len(volumes.Items))
	for i := range volumes.Items {
		v := &volumes.Items[i]
		if v.VolumeInfo.Title == "" {
			continue
		}
		results = append(results, toCandidate(v))
	}

	return results, nil
}

// toCandidate converts a wire volume to the domain shape.
func toCandidate(v *volume) domain.SearchCandidate {
	info := &v.VolumeInfo

	identifiers := make([]domain.Identifier, 0, len(info.IndustryIdentifiers))
	for _, ident := range info.IndustryIdentifiers {
		identifiers = append(identifiers, domain.Identifier{
			Type:  ident.Type,
			Value: ident.Identifier,
		})
	}

	return domain.SearchCandidate{
		ExternalID:    v.ID,
		Title:         info.Title,
		Authors:       info.Authors,
		Description:   info.Description,
		CoverURL:      coverURL(info.ImageLinks),
		Identifiers:   identifiers,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
	}
}

// coverURL picks the thumbnail, upgrades it to https, and falls back to a
// fixed placeholder when the volume has no artwork.
func coverURL(links *imageLinks) string {
	if links == nil || links.Thumbnail == "" {
		return fallbackCoverURL
	}
	return strings.Replace(links.Thumbnail, "http:", "https:", 1)
}
