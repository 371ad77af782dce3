package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterkit/mapalg/internal/runtime"
)

func genProgram(t *testing.T, source string, images ...string) *runtime.Program {
	t.Helper()
	prog, meta := classified(t, source, images...)
	prog, err := Desugar(prog, meta)
	require.NoError(t, err)
	rt, err := Codegen(prog, meta)
	require.NoError(t, err)
	return rt
}

func TestCodegenSlotTable(t *testing.T) {
	rt := genProgram(t, "a = 1;\nb = a + 2;")
	assert.Equal(t, []string{"a", "b"}, rt.Slots)
	assert.Equal(t, 0, rt.SlotOf("a"))
	assert.Equal(t, 1, rt.SlotOf("b"))
	assert.Equal(t, -1, rt.SlotOf("missing"))
}

func TestCodegenStoreAndLoad(t *testing.T) {
	rt := genProgram(t, "a = 1;\nb = a;")
	require.Len(t, rt.Steps, 2)

	store := rt.Steps[0]
	assert.Equal(t, runtime.OpStore, store.Op)
	assert.Equal(t, 0, store.Slot)
	require.Len(t, store.Kids, 1)
	assert.Equal(t, runtime.OpConst, store.Kids[0].Op)
	assert.Equal(t, 1.0, store.Kids[0].Value)

	load := rt.Steps[1].Kids[0]
	assert.Equal(t, runtime.OpLoad, load.Op)
	assert.Equal(t, 0, load.Slot)
}

func TestCodegenImageTables(t *testing.T) {
	rt := genProgram(t, "result = src + other;", "src", "other", "result")
	assert.Equal(t, []string{"src", "other"}, rt.Inputs)
	assert.Equal(t, []string{"result"}, rt.Outputs)

	write := rt.Steps[0]
	assert.Equal(t, runtime.OpImageWrite, write.Op)
	assert.Equal(t, 0, write.Image)
	assert.Equal(t, "result", write.Name)

	add := write.Kids[0]
	require.Equal(t, runtime.OpBinary, add.Op)
	left, right := add.Kids[0], add.Kids[1]
	assert.Equal(t, runtime.OpImageRead, left.Op)
	assert.Equal(t, 0, left.Image)
	assert.Equal(t, runtime.OpImageRead, right.Op)
	assert.Equal(t, 1, right.Image)
}

func TestCodegenImageReadOffsets(t *testing.T) {
	rt := genProgram(t, "result = src[-1, 2];", "src", "result")
	read := rt.Steps[0].Kids[0]
	require.Equal(t, runtime.OpImageRead, read.Op)
	require.Len(t, read.Kids, 2)
	// -1 parses as unary negation of a literal.
	assert.Equal(t, runtime.OpUnary, read.Kids[0].Op)
	assert.Equal(t, runtime.OpConst, read.Kids[1].Op)
	assert.Equal(t, 2.0, read.Kids[1].Value)
}

func TestCodegenCoordinateOpcodes(t *testing.T) {
	rt := genProgram(t, "result = x() + y() + width() + height();", "result")
	ops := map[runtime.OpCode]bool{}
	var walk func(n *runtime.Node)
	walk = func(n *runtime.Node) {
		ops[n.Op] = true
		for _, kid := range n.Kids {
			walk(kid)
		}
	}
	walk(rt.Steps[0])

	assert.True(t, ops[runtime.OpCoordX])
	assert.True(t, ops[runtime.OpCoordY])
	assert.True(t, ops[runtime.OpWidth])
	assert.True(t, ops[runtime.OpHeight])
	assert.False(t, ops[runtime.OpCall], "coordinate builtins never lower to generic calls")
}

func TestCodegenCallNodes(t *testing.T) {
	rt := genProgram(t, "v = max(rand(1), 2);")
	call := rt.Steps[0].Kids[0]
	require.Equal(t, runtime.OpCall, call.Op)
	assert.Equal(t, "max", call.Name)
	require.NotNil(t, call.Eval)
	require.Len(t, call.Kids, 2)
	assert.Equal(t, runtime.OpCall, call.Kids[0].Op)
	assert.Equal(t, "rand", call.Kids[0].Name)
}

func TestCodegenBranchNodes(t *testing.T) {
	rt := genProgram(t, "a = 1;\nv = a ? 2 : 3;")
	branch := rt.Steps[1].Kids[0]
	require.Equal(t, runtime.OpBranch, branch.Op)
	require.Len(t, branch.Kids, 3)
}

func TestCodegenRejectsUndesugaredTrees(t *testing.T) {
	// Bare input-image references must be desugared before codegen.
	prog, meta := classified(t, "result = src;", "src", "result")
	_, err := Codegen(prog, meta)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal compiler error")
}
