package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	src := NewFilledImage(2, 2, 3)
	result := NewImage(2, 2)

	err := Run("result = src * src;", map[string]*Image{
		"src":    src,
		"result": result,
	})
	require.NoError(t, err)
	assert.Equal(t, 9.0, result.Get(1, 1))
}

func TestCompileExposesMetadata(t *testing.T) {
	result := NewImage(1, 1)
	program, err := Compile("a = 1; result = a;", map[string]*Image{"result": result})
	require.NoError(t, err)
	assert.NotNil(t, program.Runtime())
	assert.Equal(t, []string{"result"}, program.Runtime().Outputs)
}

func TestReportCompileError(t *testing.T) {
	_, err := Compile("result = foo(1) + bar(2);", nil)
	require.Error(t, err)
	assert.Equal(t, "UnknownFunction: foo\nUnknownFunction: bar\n", Report(err))
}

func TestReportSyntaxError(t *testing.T) {
	_, err := Compile("result = ;", nil)
	require.Error(t, err)
	assert.Contains(t, Report(err), "SyntaxError: 1:")
}
