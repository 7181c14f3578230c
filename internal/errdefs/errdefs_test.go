package errdefs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("application 1: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("owner check: %w", ErrForbidden), "forbidden"},
		{ErrConflict, "conflict"},
		{ErrValidation, "validation_error"},
		{ErrExpired, "expired"},
		{ErrUnauthorized, "unauthorized"},
		{ErrTransport, "internal_error"},
		{errors.New("boom"), "internal_error"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, Code(tc.err), tc.err.Error())
	}
}
