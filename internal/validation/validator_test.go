package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/readshelfapp/readshelf-server/internal/errors"
)

type noteInput struct {
	Content string `json:"content" validate:"required"`
	Rating  int    `json:"rating" validate:"gte=0,lte=5"`
}

func TestValidate_Passes(t *testing.T) {
	v := New()

	err := v.Validate(noteInput{Content: "a note", Rating: 4})
	assert.NoError(t, err)
}

func TestValidate_RequiredField(t *testing.T) {
	v := New()

	err := v.Validate(noteInput{Content: "", Rating: 2})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))

	// Field names come from JSON tags.
	fields, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["content"])
}

func TestValidate_RangeBounds(t *testing.T) {
	v := New()

	err := v.Validate(noteInput{Content: "x", Rating: 6})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}
