// Package builtins defines the fixed catalog of built-in functions and
// named constants available to map-algebra scripts.
//
// The catalog is indexed by function name and supports per-arity
// overloads. It is populated once in init and read-only afterwards, so
// unsynchronized concurrent lookups are safe.
package builtins

import (
	"math"
	"math/rand"
)

// Kind identifies categories of builtin functions.
type Kind uint8

const (
	KindNumeric    Kind = iota // Math functions
	KindRandom                 // Random number sources
	KindCoordinate             // Output-coordinate and image-bound reads
	KindControl                // Conditional shorthand, desugared before codegen
)

// Overload represents a single function overload for one argument count.
type Overload struct {
	Arity int
	Eval  func(args []float64) float64
}

// Builtin represents a built-in function.
type Builtin struct {
	Name      string
	Kind      Kind
	Overloads []Overload

	// Volatile functions are never evaluated at compile time: their value
	// depends on runtime state (random stream, coordinate, image bounds).
	Volatile bool

	// Positional functions depend on the output pixel coordinate.
	Positional bool
}

// Overload returns the overload for the given argument count.
func (b *Builtin) Overload(arity int) (Overload, bool) {
	for _, o := range b.Overloads {
		if o.Arity == arity {
			return o, true
		}
	}
	return Overload{}, false
}

// Table maps builtin function names to their definitions.
var Table = make(map[string]*Builtin)

// Constants maps built-in named constants to their values. Constant names
// never require an image binding.
var Constants = map[string]float64{
	"PI":  math.Pi,
	"E":   math.E,
	"NaN": math.NaN(),
	"INF": math.Inf(1),
}

// Lookup returns the builtin for a call site, or false when the name is
// unknown or the argument count is unsupported.
func Lookup(name string, arity int) (*Builtin, Overload, bool) {
	b, ok := Table[name]
	if !ok {
		return nil, Overload{}, false
	}
	o, ok := b.Overload(arity)
	if !ok {
		return nil, Overload{}, false
	}
	return b, o, true
}

// IsConstant reports whether the name is a built-in named constant.
func IsConstant(name string) bool {
	_, ok := Constants[name]
	return ok
}

func init() {
	registerNumeric()
	registerRandom()
	registerCoordinate()
	registerControl()
}

func register(b *Builtin) {
	Table[b.Name] = b
}

func unary(name string, fn func(float64) float64) {
	register(&Builtin{
		Name: name,
		Kind: KindNumeric,
		Overloads: []Overload{
			{Arity: 1, Eval: func(args []float64) float64 { return fn(args[0]) }},
		},
	})
}

func binary(name string, fn func(float64, float64) float64) {
	register(&Builtin{
		Name: name,
		Kind: KindNumeric,
		Overloads: []Overload{
			{Arity: 2, Eval: func(args []float64) float64 { return fn(args[0], args[1]) }},
		},
	})
}

func registerNumeric() {
	unary("abs", math.Abs)
	unary("sqrt", math.Sqrt)
	unary("exp", math.Exp)
	unary("log10", math.Log10)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("degToRad", func(d float64) float64 { return d * math.Pi / 180 })
	unary("radToDeg", func(r float64) float64 { return r * 180 / math.Pi })

	binary("atan2", math.Atan2)
	binary("min", math.Min)
	binary("max", math.Max)
	binary("pow", math.Pow)

	// log(x) is the natural log; log(x, base) is log base b.
	register(&Builtin{
		Name: "log",
		Kind: KindNumeric,
		Overloads: []Overload{
			{Arity: 1, Eval: func(args []float64) float64 { return math.Log(args[0]) }},
			{Arity: 2, Eval: func(args []float64) float64 { return math.Log(args[0]) / math.Log(args[1]) }},
		},
	})

	register(&Builtin{
		Name: "clamp",
		Kind: KindNumeric,
		Overloads: []Overload{
			{Arity: 3, Eval: func(args []float64) float64 {
				return math.Min(math.Max(args[0], args[1]), args[2])
			}},
		},
	})
}

func registerRandom() {
	register(&Builtin{
		Name:     "rand",
		Kind:     KindRandom,
		Volatile: true,
		Overloads: []Overload{
			{Arity: 1, Eval: func(args []float64) float64 { return rand.Float64() * args[0] }},
		},
	})
	register(&Builtin{
		Name:     "randInt",
		Kind:     KindRandom,
		Volatile: true,
		Overloads: []Overload{
			{Arity: 1, Eval: func(args []float64) float64 { return math.Floor(rand.Float64() * args[0]) }},
		},
	})
}

func registerCoordinate() {
	// Coordinate functions are placeholders here: the execution engine
	// substitutes the current output coordinate and image bounds. Their
	// Eval funcs are never called.
	coord := func(name string, positional bool) {
		register(&Builtin{
			Name:       name,
			Kind:       KindCoordinate,
			Volatile:   true,
			Positional: positional,
			Overloads:  []Overload{{Arity: 0, Eval: nil}},
		})
	}
	coord("x", true)
	coord("y", true)
	coord("width", false)
	coord("height", false)
}

func registerControl() {
	// con(guard, then[, else]) is rewritten to a conditional node by the
	// desugar pass; the overloads exist for call-site validation only.
	register(&Builtin{
		Name: "con",
		Kind: KindControl,
		Overloads: []Overload{
			{Arity: 2, Eval: nil},
			{Arity: 3, Eval: nil},
		},
	})
}
