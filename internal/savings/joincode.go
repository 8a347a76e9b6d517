package savings

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

const (
	joinCodeLength   = 8
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinCodeAttempts = 5
)

func randomJoinCode() (string, error) {
	size := big.NewInt(int64(len(joinCodeAlphabet)))
	code := make([]byte, joinCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// newJoinCode returns a code no existing group uses. differentFrom, when set,
// is also excluded so a regenerated code always changes.
func newJoinCode(ctx context.Context, r storage.GroupRepo, differentFrom string) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := randomJoinCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate join code: %w", err)
		}
		if code == differentFrom {
			continue
		}
		exists, err := r.JoinCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique join code after %d attempts", joinCodeAttempts)
}
