package domain

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *FetchError
		expected string
	}{
		{
			name:     "http status",
			err:      &FetchError{URL: "http://host/bank.json", StatusCode: 404},
			expected: `fetch "http://host/bank.json": status 404`,
		},
		{
			name:     "transport error",
			err:      &FetchError{URL: "http://host/bank.json", Err: io.ErrUnexpectedEOF},
			expected: `fetch "http://host/bank.json": unexpected EOF`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	err := &FetchError{URL: "u", Err: io.ErrUnexpectedEOF}
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestDecodeError_Error(t *testing.T) {
	base := errors.New("invalid character '<'")

	require.Equal(t, `decode bank: invalid character '<'`, (&DecodeError{Err: base}).Error())
	require.Equal(t, `decode bank "b.json": invalid character '<'`, (&DecodeError{URL: "b.json", Err: base}).Error())
	require.True(t, errors.Is(&DecodeError{Err: base}, base))
}

func TestProgress_Fraction(t *testing.T) {
	require.Equal(t, 0.5, Progress{Loaded: 50, Total: 100, LengthComputable: true}.Fraction())
	require.Equal(t, -1.0, Progress{Loaded: 50}.Fraction())
	require.Equal(t, -1.0, Progress{Loaded: 50, LengthComputable: true}.Fraction())
}
