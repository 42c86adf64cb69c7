// Package refcode generates the external codes printed on tickets and receipts.
package refcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generate returns PREFIX-YYYYMMDD-XXXXXX with six random uppercase letters.
func Generate(prefix string, now time.Time) (string, error) {
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), string(randomPart)), nil
}
