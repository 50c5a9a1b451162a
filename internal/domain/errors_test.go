package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	assert.True(t, IsAuthorization(AuthorizationError("nope")))
	assert.True(t, IsValidation(ValidationError("bad")))
	assert.True(t, IsState(StateError("too late")))
	assert.False(t, IsValidation(AuthorizationError("nope")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("buy: %w", ValidationError("Token is not listed"))
	assert.True(t, IsValidation(err))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestReasonIsTheMessage(t *testing.T) {
	err := ValidationError("Amount to be listed should be positive")
	assert.EqualError(t, err, "Amount to be listed should be positive")
}
