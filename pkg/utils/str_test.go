package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "a", FirstNonEmpty("a", "b"))
	assert.Equal(t, "b", FirstNonEmpty("", "b"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
}

func TestSplitByMultipleDelimiters(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitByMultipleDelimiters("a;b,c", ";", ","))
	assert.Equal(t, []string{"abc"}, SplitByMultipleDelimiters("abc"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@acme.mx", NormalizeEmail("  Ana@ACME.mx "))
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "acme.mx", EmailDomain("ana@ACME.mx"))
	assert.Equal(t, "", EmailDomain("no-at-sign"))
	assert.Equal(t, "", EmailDomain("trailing@"))
}
