package domain

import "github.com/google/uuid"

// Actor identifies who performs mutations. The app currently runs with a
// single implicit user; routing every mutation through an Actor keeps a
// future multi-user extension from rewriting the mutation layer.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// NewActor creates an actor with a random identity.
func NewActor(displayName string) *Actor {
	return &Actor{
		ID:          uuid.NewString(),
		DisplayName: displayName,
	}
}
