package googlebooks

import (
	"fmt"

	"github.com/readshelfapp/readshelf-server/internal/domain"
)

// Fixed retailers for purchase option derivation.
const (
	amazonURLPattern = "https://www.amazon.com/dp/%s"
	bnURLPattern     = "https://www.barnesandnoble.com/%s"
	libbyURL         = "https://libbyapp.com"
)

// PurchaseOptions derives an ordered list of acquisition options from a
// candidate's identifiers. With an ISBN (13 preferred, else 10) it emits two
// buy options; the single borrow option is always present. Pure derivation,
// no network call.
func PurchaseOptions(c *domain.SearchCandidate) []domain.PurchaseOption {
	options := make([]domain.PurchaseOption, 0, 3)

	if isbn := c.ISBN(); isbn != "" {
		options = append(options,
			domain.PurchaseOption{
				Retailer: "Amazon.com",
				URL:      fmt.Sprintf(amazonURLPattern, isbn),
				Kind:     domain.PurchaseBuy,
			},
			domain.PurchaseOption{
				Retailer: "Barnes & Noble",
				URL:      fmt.Sprintf(bnURLPattern, isbn),
				Kind:     domain.PurchaseBuy,
			},
		)
	}

	options = append(options, domain.PurchaseOption{
		Retailer: "Libby",
		URL:      libbyURL,
		Kind:     domain.PurchaseBorrow,
	})

	return options
}
