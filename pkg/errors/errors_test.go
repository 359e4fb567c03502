package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(CodeFetch, "fetch failed", base))

	require.True(t, IsCode(err, CodeFetch))
	require.False(t, IsCode(err, CodeParse))
	require.ErrorIs(t, err, base)
	require.Equal(t, CodeFetch, CodeOf(err))
	require.Equal(t, "outer: fetch failed: boom", err.Error())
}

func TestWrapNil(t *testing.T) {
	err := Wrap(CodeSchema, "missing column", nil)
	require.Equal(t, "missing column", err.Error())
	require.Nil(t, errors.Unwrap(err))
	require.Equal(t, "", CodeOf(errors.New("plain")))
}
