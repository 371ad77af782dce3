package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterkit/mapalg/internal/diag"
	"github.com/rasterkit/mapalg/internal/parser"
)

func check(t *testing.T, source string) *diag.ErrorLog {
	t.Helper()
	prog, _, serr := parser.New(source).Parse()
	require.Nil(t, serr)
	return CheckCalls(prog)
}

func TestValidScript(t *testing.T) {
	log := check(t, "a = max(1, 2);\nresult = con(a > 1, log(a), log(a, 2));")
	assert.False(t, log.HasErrors())
}

func TestUnknownFunction(t *testing.T) {
	log := check(t, "result = foo(1);")
	require.True(t, log.HasErrors())
	records := log.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "foo", records[0].Name)
	assert.Equal(t, diag.UnknownFunction, records[0].Kind)
}

func TestWrongArity(t *testing.T) {
	// A known name called with an unsupported argument count is an
	// unknown function at that call site.
	log := check(t, "result = abs(1, 2);")
	require.True(t, log.HasErrors())
	assert.Equal(t, diag.UnknownFunction, log.Records()[0].Kind)
	assert.Equal(t, "abs", log.Records()[0].Name)
}

func TestAggregatesAllUnknowns(t *testing.T) {
	log := check(t, "a = foo(1);\nb = bar(2) + foo(3);\nresult = baz(a, b);")
	records := log.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "foo", records[0].Name)
	assert.Equal(t, "bar", records[1].Name)
	assert.Equal(t, "baz", records[2].Name)
}

func TestChecksNestedExpressions(t *testing.T) {
	log := check(t, "result = 1 + (2 * missing(sin(3))) ? 1 : other(4);")
	records := log.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "missing", records[0].Name)
	assert.Equal(t, "other", records[1].Name)
}
