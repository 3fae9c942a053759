//nolint:thelper // ok for tests
package broker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code := generateCode()
		assert.Len(t, code, codeLength)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		seen[code] = true
	}
	// 200 draws from 32^4 colliding completely would mean a broken source
	assert.Greater(t, len(seen), 190)
}

func TestCodeAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	for _, banned := range []string{"I", "O", "0", "1"} {
		assert.NotContains(t, codeAlphabet, banned)
	}
	// power-of-two size keeps the modulo draw unbiased
	assert.Equal(t, 32, len(codeAlphabet))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "AB2C", NormalizeCode("  ab2c "))
	assert.Equal(t, "AB2C", NormalizeCode("AB2C"))
	assert.Equal(t, strings.ToUpper("xyzw"), NormalizeCode("xyzw"))
}
