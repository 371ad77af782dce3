package optimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/printer"
)

// foldToFixpoint runs the fold pass until no rewrites occur, the way the
// compile controller does.
func foldToFixpoint(t *testing.T, source string, images ...string) (*ast.Program, *VarTable) {
	t.Helper()
	prog, meta := classified(t, source, images...)
	prog, err := Desugar(prog, meta)
	require.NoError(t, err)

	vt := NewVarTable()
	for i := 0; i < 100; i++ {
		next, rewrites, err := Fold(prog, meta, vt)
		require.NoError(t, err)
		prog = next
		if rewrites == 0 {
			return prog, vt
		}
	}
	t.Fatal("fold did not reach a fixpoint")
	return nil, nil
}

func TestFoldLiteralArithmetic(t *testing.T) {
	prog, vt := foldToFixpoint(t, "v = 2 + 3 * 4;")
	assert.Equal(t, "v = 14;\n", printer.Print(prog))
	v, ok := vt.Get("v")
	require.True(t, ok)
	assert.Equal(t, 14.0, v)
}

func TestFoldPropagatesThroughLocals(t *testing.T) {
	prog, vt := foldToFixpoint(t, "a = 2;\nb = a + 3;\nc = b * b;")
	assert.Equal(t, "a = 2;\nb = 5;\nc = 25;\n", printer.Print(prog))

	c, ok := vt.Get("c")
	require.True(t, ok)
	assert.Equal(t, 25.0, c)
}

func TestFoldNamedConstants(t *testing.T) {
	prog, _ := foldToFixpoint(t, "v = E;")
	assign := prog.Stmts[0].(*ast.AssignStmt)
	lit, ok := assign.Value.(*ast.NumberLit)
	require.True(t, ok)
	assert.Equal(t, math.E, lit.Value)
}

func TestFoldNonVolatileCalls(t *testing.T) {
	prog, _ := foldToFixpoint(t, "v = max(abs(0 - 3), 2);")
	assert.Equal(t, "v = 3;\n", printer.Print(prog))
}

func TestFoldNeverTouchesVolatileCalls(t *testing.T) {
	prog, vt := foldToFixpoint(t, "v = rand(10);\nw = x() + 1;")
	assert.Equal(t, "v = rand(10);\nw = x() + 1;\n", printer.Print(prog))
	assert.Equal(t, 0, vt.Len())
}

func TestFoldSkipsMultiAssignmentLocals(t *testing.T) {
	// A reassigned local is never bound, so reads of it stay symbolic.
	prog, vt := foldToFixpoint(t, "a = 1;\na = 2;\nb = a;")
	assert.Equal(t, "a = 1;\na = 2;\nb = a;\n", printer.Print(prog))
	_, bound := vt.Get("a")
	assert.False(t, bound)
}

func TestFoldDefersDivisionByZero(t *testing.T) {
	prog, _ := foldToFixpoint(t, "v = 1 / 0;")
	assert.Equal(t, "v = 1 / 0;\n", printer.Print(prog))
}

func TestFoldNaNBindingIsStable(t *testing.T) {
	// Re-folding an assignment bound to NaN must not trip the rebind
	// check even though NaN != NaN.
	prog, vt := foldToFixpoint(t, "a = NaN;\nb = a;")
	assert.Equal(t, "a = NaN;\nb = NaN;\n", printer.Print(prog))
	v, ok := vt.Get("a")
	require.True(t, ok)
	assert.True(t, math.IsNaN(v))
}

func TestFoldBooleanSemantics(t *testing.T) {
	testData := []struct {
		source   string
		expected string
	}{
		{"v = 2 && 3;", "v = 1;\n"},
		{"v = 2 && 0;", "v = 0;\n"},
		{"v = 0 || 0;", "v = 0;\n"},
		{"v = 0 || 5;", "v = 1;\n"},
		{"v = !0;", "v = 1;\n"},
		{"v = !7;", "v = 0;\n"},
		{"v = NaN && 1;", "v = 1;\n"}, // NaN is truthy
		{"v = 1 < 2;", "v = 1;\n"},
		{"v = 2 <= 1;", "v = 0;\n"},
		{"v = 2 == 2;", "v = 1;\n"},
		{"v = 2 != 2;", "v = 0;\n"},
	}
	for _, testD := range testData {
		prog, _ := foldToFixpoint(t, testD.source)
		assert.Equal(t, testD.expected, printer.Print(prog), "source %q", testD.source)
	}
}

func TestFoldGuardButNotBranches(t *testing.T) {
	// The guard folds to a literal but the conditional is kept whole;
	// pruning is the finalize pass's job.
	prog, _ := foldToFixpoint(t, "w = rand(1);\nv = 1 < 2 ? w : 0;")
	assert.Equal(t, "w = rand(1);\nv = 1 ? w : 0;\n", printer.Print(prog))
}

func TestFoldLeavesImageReadsAlone(t *testing.T) {
	prog, _ := foldToFixpoint(t, "result = src[0, 1 + 1] + 0 * 1;", "src", "result")
	assert.Equal(t, "result = src[0, 2] + 0;\n", printer.Print(prog))
}
