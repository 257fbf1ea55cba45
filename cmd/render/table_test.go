package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	out := Table("Catalog",
		[]string{"Table", "Rows"},
		[][]string{{"recordings", "3"}, {"syllables"}},
		[]Alignment{AlignLeft, AlignRight})

	assert.Contains(t, out, "Catalog")
	assert.Contains(t, out, "recordings")
	assert.Contains(t, out, "syllables")
	assert.True(t, strings.HasPrefix(out, "╭"), "expected rounded style, got %q", out)
}

func TestTable_NoHeaders(t *testing.T) {
	assert.Empty(t, Table("", nil, [][]string{{"x"}}, nil))
}
