package domain

// PurchaseKind distinguishes acquisition options.
type PurchaseKind string

// Acquisition kinds.
const (
	PurchaseBuy    PurchaseKind = "buy"
	PurchaseBorrow PurchaseKind = "borrow"
)

// PurchaseOption is a single acquisition link derived from a candidate's
// identifiers. Pure derivation; no network call is involved.
type PurchaseOption struct {
	Retailer string       `json:"retailer"`
	URL      string       `json:"url"`
	Kind     PurchaseKind `json:"kind"`
}
