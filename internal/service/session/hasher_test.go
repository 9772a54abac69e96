package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/petalert/internal/apperrors"
)

func TestHasher_Digest(t *testing.T) {
	t.Run("known algorithms", func(t *testing.T) {
		tests := []struct {
			algorithm string
			expected  string
		}{
			{DigestMD5, "0cc175b9c0f1b6a831c399e269772661"},
			{DigestSHA1, "86f7e437faa5a7fce15d1ddcb9eaeaea377667b8"},
			{DigestSHA256, "ca978112ca1bbdcafac231b39a23dc4da786eff8147c4e72b9807785afee48bb"},
		}

		for _, tt := range tests {
			t.Run(tt.algorithm, func(t *testing.T) {
				h := NewHasher(tt.algorithm)

				got, err := h.Digest("a")

				require.NoError(t, err)
				require.Equal(t, tt.expected, got)
			})
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		h := NewHasher(DigestMD5)

		first, err := h.Digest("alice1700000000")
		require.NoError(t, err)
		second, err := h.Digest("alice1700000000")
		require.NoError(t, err)

		require.Equal(t, first, second)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		h := NewHasher("md4")

		got, err := h.Digest("a")

		require.ErrorIs(t, err, apperrors.ErrDigestUnavailable)
		require.Empty(t, got, "no value must be returned")
	})
}
