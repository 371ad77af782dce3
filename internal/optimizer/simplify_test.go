package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterkit/mapalg/internal/parser"
	"github.com/rasterkit/mapalg/internal/printer"
)

func simplifySource(t *testing.T, source string) string {
	t.Helper()
	prog, _, serr := parser.New(source).Parse()
	require.Nil(t, serr)
	return printer.Print(Simplify(prog))
}

func TestSimplifyIdentities(t *testing.T) {
	testData := []struct {
		source   string
		expected string
	}{
		{"v = a + 0;", "v = a;\n"},
		{"v = 0 + a;", "v = a;\n"},
		{"v = a - 0;", "v = a;\n"},
		{"v = a * 1;", "v = a;\n"},
		{"v = 1 * a;", "v = a;\n"},
		{"v = a / 1;", "v = a;\n"},
		{"v = a ^ 1;", "v = a;\n"},
		{"v = - - a;", "v = a;\n"},
		{"v = -(3);", "v = -3;\n"},
		// Not identities:
		{"v = 0 - a;", "v = 0 - a;\n"},
		{"v = 1 / a;", "v = 1 / a;\n"},
		{"v = 1 ^ a;", "v = 1 ^ a;\n"},
	}
	for _, testD := range testData {
		assert.Equal(t, testD.expected, simplifySource(t, testD.source), "source %q", testD.source)
	}
}

func TestSimplifyRegroupsLiterals(t *testing.T) {
	// Literal operands of a commutative associative chain are grouped
	// into one subchain so the fold pass can collapse them.
	testData := []struct {
		source   string
		expected string
	}{
		{"v = a + 2 + b + 3;", "v = a + b + (2 + 3);\n"},
		{"v = 2 * a * 3;", "v = a * (2 * 3);\n"},
		{"v = (a + 2) + (b + 3);", "v = a + b + (2 + 3);\n"},
	}
	for _, testD := range testData {
		assert.Equal(t, testD.expected, simplifySource(t, testD.source), "source %q", testD.source)
	}
}

func TestSimplifyLeavesSingleLiteralChains(t *testing.T) {
	assert.Equal(t, "v = a + 2 + b;\n", simplifySource(t, "v = a + 2 + b;"))
}

func TestSimplifyDoesNotRegroupNonAssociative(t *testing.T) {
	assert.Equal(t, "v = a - 2 - b - 3;\n", simplifySource(t, "v = a - 2 - b - 3;"))
	assert.Equal(t, "v = a / 2 / b;\n", simplifySource(t, "v = a / 2 / b;"))
}

func TestSimplifyRecursesIntoCallsAndConditionals(t *testing.T) {
	assert.Equal(t, "v = max(a, b + (1 + 2));\n", simplifySource(t, "v = max(a * 1, b + 1 + 2);"))
	assert.Equal(t, "v = a ? b : c;\n", simplifySource(t, "v = a ? b + 0 : c * 1;"))
}
