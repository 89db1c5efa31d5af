package entity

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const orderNumberRandLen = 5

var base36Limit = big.NewInt(36)

// GenerateOrderNumber returns "ORD-<base36 unix millis>-<5 random base36 chars>",
// upper-cased. Uniqueness is finally enforced by the orders table.
func GenerateOrderNumber(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString("ORD-")
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))
	b.WriteByte('-')
	for i := 0; i < orderNumberRandLen; i++ {
		n, err := rand.Int(rand.Reader, base36Limit)
		if err != nil {
			return "", err
		}
		b.WriteString(strings.ToUpper(strconv.FormatInt(n.Int64(), 36)))
	}
	return b.String(), nil
}
