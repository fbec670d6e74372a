package googlebooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readshelfapp/readshelf-server/internal/domain"
)

func TestPurchaseOptions_WithISBN13(t *testing.T) {
	c := &domain.SearchCandidate{
		Identifiers: []domain.Identifier{
			{Type: domain.IdentifierISBN13, Value: "9780441172719"},
		},
	}

	options := PurchaseOptions(c)
	require.Len(t, options, 3)

	assert.Equal(t, "Amazon.com", options[0].Retailer)
	assert.Equal(t, "https://www.amazon.com/dp/9780441172719", options[0].URL)
	assert.Equal(t, domain.PurchaseBuy, options[0].Kind)

	assert.Equal(t, "Barnes & Noble", options[1].Retailer)
	assert.Equal(t, "https://www.barnesandnoble.com/9780441172719", options[1].URL)
	assert.Equal(t, domain.PurchaseBuy, options[1].Kind)

	assert.Equal(t, "Libby", options[2].Retailer)
	assert.Equal(t, domain.PurchaseBorrow, options[2].Kind)
}

func TestPurchaseOptions_ISBN10Fallback(t *testing.T) {
	c := &domain.SearchCandidate{
		Identifiers: []domain.Identifier{
			{Type: domain.IdentifierISBN10, Value: "0441172717"},
		},
	}

	options := PurchaseOptions(c)
	require.Len(t, options, 3)
	assert.Equal(t, "https://www.amazon.com/dp/0441172717", options[0].URL)
}

func TestPurchaseOptions_NoIdentifiers(t *testing.T) {
	options := PurchaseOptions(&domain.SearchCandidate{})

	require.Len(t, options, 1)
	assert.Equal(t, "Libby", options[0].Retailer)
	assert.Equal(t, domain.PurchaseBorrow, options[0].Kind)
}
