package businessflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/scanlytic/scanlytic/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShortCode(t *testing.T) {
	t.Run("DefaultLength", func(t *testing.T) {
		code, err := GenerateShortCode(0)
		require.NoError(t, err)
		assert.Len(t, code, utils.ShortCodeLength)
	})

	t.Run("AlphabetOnly", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			code, err := GenerateShortCode(utils.ShortCodeLength)
			require.NoError(t, err)
			for _, ch := range code {
				assert.True(t, strings.ContainsRune(utils.ShortCodeAlphabet, ch),
					"unexpected character %q in short code %q", ch, code)
			}
		}
	})

	t.Run("CustomLength", func(t *testing.T) {
		code, err := GenerateShortCode(12)
		require.NoError(t, err)
		assert.Len(t, code, 12)
	})
}

func TestGenerateUniqueShortCode(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstAttemptFree", func(t *testing.T) {
		calls := 0
		code, err := GenerateUniqueShortCode(ctx, func(ctx context.Context, code string) (bool, error) {
			calls++
			return false, nil
		})
		require.NoError(t, err)
		assert.Len(t, code, utils.ShortCodeLength)
		assert.Equal(t, 1, calls)
	})

	t.Run("RetriesOnCollision", func(t *testing.T) {
		calls := 0
		code, err := GenerateUniqueShortCode(ctx, func(ctx context.Context, code string) (bool, error) {
			calls++
			return calls < 3, nil
		})
		require.NoError(t, err)
		assert.Len(t, code, utils.ShortCodeLength)
		assert.Equal(t, 3, calls)
	})

	t.Run("FallbackAfterExhaustedAttempts", func(t *testing.T) {
		calls := 0
		code, err := GenerateUniqueShortCode(ctx, func(ctx context.Context, code string) (bool, error) {
			calls++
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, utils.ShortCodeMaxAttempts, calls)
		assert.Len(t, code, utils.ShortCodeFallbackLength)
	})

	t.Run("PropagatesCheckError", func(t *testing.T) {
		checkErr := errors.New("connection refused")
		_, err := GenerateUniqueShortCode(ctx, func(ctx context.Context, code string) (bool, error) {
			return false, checkErr
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, checkErr)
	})
}
