package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_PreservesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Storage, "could not write fingerprints", cause)

	assert.True(t, Is(err, Storage))
	assert.Equal(t, Storage, KindOf(err))
	assert.ErrorIs(t, err, err)
	// Error() includes cause text
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrap_NilCauseFallsBackToNew(t *testing.T) {
	err := Wrap(InvalidInput, "bad input", nil)
	assert.Equal(t, InvalidInput, KindOf(err))
}

func TestKindOf_UnknownForForeignErrors(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(errors.New("not ours")))
}

func TestHTTPStatus_MapsEachKind(t *testing.T) {
	cases := map[Kind]int{
		InvalidInput:  http.StatusBadRequest,
		AlreadyExists: http.StatusConflict,
		NotFound:      http.StatusNotFound,
		Cancelled:     499,
		DSPFailure:    http.StatusInternalServerError,
		Storage:       http.StatusInternalServerError,
	}

	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(New(kind, "x")))
	}
}
