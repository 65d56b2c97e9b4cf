package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateBookingCode builds a human-readable reference like "BK-7F4K2MQ9".
func GenerateBookingCode() string {
	var sb strings.Builder
	sb.WriteString("BK-")
	alphaLen := big.NewInt(int64(len(codeCharset)))
	for i := 0; i < 8; i++ {
		num, err := rand.Int(rand.Reader, alphaLen)
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			sb.WriteByte('X')
			continue
		}
		sb.WriteByte(codeCharset[num.Int64()])
	}
	return sb.String()
}
