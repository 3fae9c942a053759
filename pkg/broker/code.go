package broker

import (
	"crypto/rand"
	"strings"
)

// codeAlphabet excludes visually confusable characters (I, O, 0, 1). Its
// length is a power of two, so indexing by byte stays unbiased.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 4

func generateCode() string {
	buf := make([]byte, codeLength)
	//nolint:errcheck // crypto/rand.Read does not fail on supported platforms
	rand.Read(buf)
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out)
}

// NormalizeCode canonicalizes user-entered room codes: case-insensitive on
// input, upper-cased canonically.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
