package businessflow

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/scanlytic/scanlytic/utils"
)

// ExistsCheck reports whether a candidate short code is already taken.
// It is supplied by the caller so the generator stays pure with respect
// to storage.
type ExistsCheck func(ctx context.Context, code string) (bool, error)

// GenerateShortCode produces a random code of the given length drawn
// uniformly from the short-code alphabet (lowercase a-z plus digits).
func GenerateShortCode(length int) (string, error) {
	if length <= 0 {
		length = utils.ShortCodeLength
	}
	alphabet := utils.ShortCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))

	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw random symbol: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateUniqueShortCode draws 6-character codes until one passes the
// supplied existence check, retrying up to 10 times. Once the retry budget
// is exhausted it falls back to an 8-character code without re-checking;
// at that length a collision is considered out of reach for any realistic
// table size.
func GenerateUniqueShortCode(ctx context.Context, exists ExistsCheck) (string, error) {
	for attempt := 0; attempt < utils.ShortCodeMaxAttempts; attempt++ {
		code, err := GenerateShortCode(utils.ShortCodeLength)
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("short code existence check failed: %w", err)
		}
		if !taken {
			return code, nil
		}
	}

	return GenerateShortCode(utils.ShortCodeFallbackLength)
}
