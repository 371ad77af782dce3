// Package compiler orchestrates script compilation: front-end parse,
// function validation, variable classification, and the optimization
// pipeline, in strict sequence. Any stage failure aborts the pipeline;
// later stages never run after an earlier one reports errors.
package compiler

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/classifier"
	"github.com/rasterkit/mapalg/internal/diag"
	"github.com/rasterkit/mapalg/internal/lexer"
	"github.com/rasterkit/mapalg/internal/optimizer"
	"github.com/rasterkit/mapalg/internal/parser"
	"github.com/rasterkit/mapalg/internal/raster"
	"github.com/rasterkit/mapalg/internal/runtime"
	"github.com/rasterkit/mapalg/internal/validator"
)

// Program is the compiled artifact: the runtime-ready tree, the variable
// metadata, and the image bindings the script was compiled against. The
// program itself is immutable once produced; concurrent executions share
// its bound images, so callers coordinate writes to the same outputs.
type Program struct {
	rt     *runtime.Program
	meta   *classifier.Metadata
	images map[string]*raster.Image
	tokens []lexer.Token
	source string
}

// Runtime returns the runtime-ready tree for the execution engine.
func (p *Program) Runtime() *runtime.Program { return p.rt }

// Metadata returns the classifier's variable metadata.
func (p *Program) Metadata() *classifier.Metadata { return p.meta }

// Image returns the image bound to the given variable name, or nil.
func (p *Program) Image(name string) *raster.Image { return p.images[name] }

// Source returns the script text the program was compiled from.
func (p *Program) Source() string { return p.source }

// Tokens returns the token stream the tree was built from. It is retained
// for diagnostics and read-only to callers.
func (p *Program) Tokens() []lexer.Token { return p.tokens }

// Run executes the compiled program over its bound images.
func (p *Program) Run() error {
	return p.rt.Run(p.images)
}

// RunContext is Run with cancellation, checked once per output row.
func (p *Program) RunContext(ctx context.Context) error {
	return p.rt.RunContext(ctx, p.images)
}

// Compiler compiles map-algebra scripts. A single instance is not safe
// for concurrent Compile calls; independent instances are, since the only
// shared state is the read-only builtin catalog.
type Compiler struct {
	logger  *zap.Logger
	program *Program
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for pass tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// New creates a Compiler. Pass tracing is disabled unless a logger is
// supplied.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compiled reports whether the most recent Compile call succeeded.
func (c *Compiler) Compiled() bool { return c.program != nil }

// Program returns the most recent compiled artifact, or nil.
func (c *Compiler) Program() *Program { return c.program }

// Image returns the image bound to the given variable name. Only
// meaningful after a successful compile.
func (c *Compiler) Image(name string) *raster.Image {
	if c.program == nil {
		return nil
	}
	return c.program.Image(name)
}

// Metadata returns the most recent compile's variable metadata, or nil.
func (c *Compiler) Metadata() *classifier.Metadata {
	if c.program == nil {
		return nil
	}
	return c.program.meta
}

// Runtime returns the most recent compile's runtime tree, or nil.
func (c *Compiler) Runtime() *runtime.Program {
	if c.program == nil {
		return nil
	}
	return c.program.rt
}

// CompileFile reads a script from a file and compiles it.
func (c *Compiler) CompileFile(path string, images map[string]*raster.Image) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return c.Compile(string(data), images)
}

// Compile compiles the script against the given image bindings. On
// failure it returns either a *diag.SyntaxError, a *diag.CompileError
// carrying the full aggregated report, or a *diag.InternalError; the
// previous artifact is discarded either way. There is no partial success.
func (c *Compiler) Compile(source string, images map[string]*raster.Image) (*Program, error) {
	c.program = nil

	// Extra newline in case the last statement hits EOF mid-token.
	source = source + "\n"

	tree, tokens, serr := parser.New(source).Parse()
	if serr != nil {
		c.logger.Debug("parse failed",
			zap.Int("line", serr.Line),
			zap.Int("column", serr.Column),
			zap.String("message", serr.Message),
		)
		return nil, serr
	}
	c.logger.Debug("parsed", zap.Int("statements", len(tree.Stmts)), zap.Int("tokens", len(tokens)))

	if log := validator.CheckCalls(tree); log.HasErrors() {
		c.logger.Debug("function validation failed", zap.Int("errors", len(log.Records())))
		return nil, &diag.CompileError{Log: log}
	}

	imageNames := make(map[string]bool, len(images))
	for name := range images {
		imageNames[name] = true
	}
	meta, log := classifier.Classify(tree, imageNames)
	if log.HasErrors() {
		c.logger.Debug("variable classification failed", zap.Int("errors", len(log.Records())))
		return nil, &diag.CompileError{Log: log}
	}
	c.logger.Debug("classified",
		zap.Strings("inputs", meta.InputImages()),
		zap.Strings("outputs", meta.OutputImages()),
		zap.Strings("locals", meta.Locals()),
	)

	rt, err := c.optimize(tree, meta, len(tokens))
	if err != nil {
		return nil, err
	}

	bound := make(map[string]*raster.Image, len(images))
	for name, img := range images {
		bound[name] = img
	}
	c.program = &Program{
		rt:     rt,
		meta:   meta,
		images: bound,
		tokens: tokens,
		source: source,
	}
	return c.program, nil
}

// optimize runs the rewrite passes in their fixed order. Script-level
// errors cannot occur here; every returned error is internal.
func (c *Compiler) optimize(tree *ast.Program, meta *classifier.Metadata, tokenCount int) (*runtime.Program, error) {
	tree, err := optimizer.Desugar(tree, meta)
	if err != nil {
		return nil, err
	}
	tree = optimizer.Simplify(tree)

	// Iterate the fold pass to its fixpoint. Monotonic VarTable bindings
	// make termination structural; the cap only turns a pass defect into
	// a fast failure instead of an endless loop.
	vt := optimizer.NewVarTable()
	maxIters := tokenCount + len(meta.Names()) + 2
	for iter := 0; ; iter++ {
		if iter > maxIters {
			return nil, diag.Internalf("constant fold did not reach a fixpoint after %d iterations", iter)
		}
		next, rewrites, err := optimizer.Fold(tree, meta, vt)
		if err != nil {
			return nil, err
		}
		tree = next
		c.logger.Debug("fold iteration",
			zap.Int("iteration", iter),
			zap.Int("rewrites", rewrites),
			zap.Int("bindings", vt.Len()),
		)
		if rewrites == 0 {
			break
		}
	}

	tree, err = optimizer.Finalize(tree, vt)
	if err != nil {
		return nil, err
	}
	return optimizer.Codegen(tree, meta)
}
