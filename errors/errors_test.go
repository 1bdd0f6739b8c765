package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorBasics(t *testing.T) {
	err := errors.New("base error")
	e := &Error{
		Op:      "GetGameById",
		Key:     "174430",
		Err:     err,
		ErrType: ErrorTypeOperation,
	}
	require.Contains(t, e.Error(), "GetGameById")
	require.Contains(t, e.Error(), "174430")
	require.Contains(t, e.Error(), "base error")
	require.Equal(t, err, e.Unwrap())
}

func TestWrapClassification(t *testing.T) {
	cases := []struct {
		base error
		want ErrorType
	}{
		{ErrNotFound, ErrorTypeUpstream},
		{ErrRateLimited, ErrorTypeUpstream},
		{ErrServiceUnavailable, ErrorTypeUpstream},
		{ErrParse, ErrorTypeParse},
		{ErrStorage, ErrorTypeStorage},
		{ErrSearch, ErrorTypeOperation},
		{errors.New("anything else"), ErrorTypeOperation},
	}

	for _, tc := range cases {
		wrapped := Wrap("op", "key", tc.base)
		require.Error(t, wrapped)
		var e *Error
		require.True(t, errors.As(wrapped, &e))
		require.Equal(t, tc.want, e.ErrType)
		require.True(t, errors.Is(wrapped, tc.base))
	}
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap("op", "key", nil))
}

func TestWrapPreservesChain(t *testing.T) {
	inner := fmt.Errorf("decode response: %w", ErrParse)
	wrapped := Wrap("Search", "catan", inner)
	require.True(t, IsParse(wrapped))
	require.False(t, IsNotFound(wrapped))
}

func TestPredicates(t *testing.T) {
	require.True(t, IsNotFound(Wrap("Get", "999", ErrNotFound)))
	require.True(t, IsRateLimited(ErrRateLimited))
	require.True(t, IsServiceUnavailable(ErrServiceUnavailable))
	require.True(t, IsStorage(Wrap("Put", "", ErrStorage)))
	require.True(t, IsSearch(Wrap("Search", "catan", ErrSearch)))
	require.False(t, IsSearch(ErrNotFound))

	require.True(t, IsRetryable(ErrRateLimited))
	require.True(t, IsRetryable(Wrap("Search", "", ErrServiceUnavailable)))
	require.False(t, IsRetryable(ErrNotFound))
	require.False(t, IsRetryable(ErrParse))
}
