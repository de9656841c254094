package utils

import (
	"crypto/rand"
	"math/big"
)

const usernameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomUsername generates an n-character alphanumeric username for accounts
// provisioned implicitly on first login.
func RandomUsername(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(usernameAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = usernameAlphabet[idx.Int64()]
	}
	return string(out), nil
}
