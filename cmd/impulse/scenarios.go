package main

import (
	"impulse/internal/ir"
	"impulse/internal/irbuild"
)

// scenario is one named demonstration program, built directly through
// irbuild rather than parsed from source (the frontend spec §1/§6 declares
// out of scope). These are the spec §8 end-to-end scenarios S1-S6.
type scenario struct {
	name   string
	entry  string
	module func() *ir.Module
}

var scenarios = []scenario{
	{"arithmetic-precedence", "main", arithmeticPrecedenceModule},
	{"recursive-factorial", "main", recursiveFactorialModule},
	{"while-loop", "main", whileLoopModule},
	{"array-round-trip", "main", arrayRoundTripModule},
	{"division-by-zero", "main", divisionByZeroModule},
	{"broken-binding", "main", brokenBindingModule},
}

// arithmeticPrecedenceModule: func main() -> int { return 1 + 2 * 3; }
func arithmeticPrecedenceModule() *ir.Module {
	return irbuild.NewModule("d").
		Function(irbuild.NewFunc("main").Returns("int").
			Block("entry",
				irbuild.Literal("1"),
				irbuild.Literal("2"),
				irbuild.Literal("3"),
				irbuild.Binary("*"),
				irbuild.Binary("+"),
				irbuild.Return(),
			).Build()).
		Build()
}

// recursiveFactorialModule: func f(n) { if n<=1 {return 1} else {return n*f(n-1)} } main() { return f(5) }
func recursiveFactorialModule() *ir.Module {
	fact := irbuild.NewFunc("f").Param("n", "int").Returns("int").
		Block("entry",
			irbuild.Reference("n"),
			irbuild.Literal("1"),
			irbuild.Binary("<="),
			irbuild.BranchIf("base", "1"),
			irbuild.Label("recurse"),
			irbuild.Reference("n"),
			irbuild.Reference("n"),
			irbuild.Literal("1"),
			irbuild.Binary("-"),
			irbuild.Call("f", 1),
			irbuild.Binary("*"),
			irbuild.Return(),
			irbuild.Label("base"),
			irbuild.Literal("1"),
			irbuild.Return(),
		).Build()

	main := irbuild.NewFunc("main").Returns("int").
		Block("entry",
			irbuild.Literal("5"),
			irbuild.Call("f", 1),
			irbuild.Return(),
		).Build()

	return irbuild.NewModule("d").Function(fact).Function(main).Build()
}

// whileLoopModule: func main() -> int { let x = 0; while x < 5 { x = x + 1; } return x; }
func whileLoopModule() *ir.Module {
	main := irbuild.NewFunc("main").Returns("int").
		Block("entry",
			irbuild.Literal("0"),
			irbuild.Store("x"),
			irbuild.Label("loop"),
			irbuild.Reference("x"),
			irbuild.Literal("5"),
			irbuild.Binary("<"),
			irbuild.BranchIf("body", "1"),
			irbuild.Label("exit"),
			irbuild.Reference("x"),
			irbuild.Return(),
			irbuild.Label("body"),
			irbuild.Reference("x"),
			irbuild.Literal("1"),
			irbuild.Binary("+"),
			irbuild.Store("x"),
			irbuild.Branch("loop"),
		).Build()

	return irbuild.NewModule("d").Function(main).Build()
}

// arrayRoundTripModule: allocate a 3-element array, fill it, sum it.
func arrayRoundTripModule() *ir.Module {
	main := irbuild.NewFunc("main").Returns("int").
		Block("entry",
			irbuild.Literal("3"),
			irbuild.MakeArray(),
			irbuild.Store("a"),

			irbuild.Reference("a"), irbuild.Literal("0"), irbuild.Literal("10"), irbuild.ArraySet(), irbuild.Drop(),
			irbuild.Reference("a"), irbuild.Literal("1"), irbuild.Literal("20"), irbuild.ArraySet(), irbuild.Drop(),
			irbuild.Reference("a"), irbuild.Literal("2"), irbuild.Literal("30"), irbuild.ArraySet(), irbuild.Drop(),

			irbuild.Reference("a"), irbuild.Literal("0"), irbuild.ArrayGet(),
			irbuild.Reference("a"), irbuild.Literal("1"), irbuild.ArrayGet(),
			irbuild.Binary("+"),
			irbuild.Reference("a"), irbuild.Literal("2"), irbuild.ArrayGet(),
			irbuild.Binary("+"),
			irbuild.Return(),
		).Build()

	return irbuild.NewModule("d").Function(main).Build()
}

// divisionByZeroModule: func main() -> int { return 1 / 0; }
func divisionByZeroModule() *ir.Module {
	main := irbuild.NewFunc("main").Returns("int").
		Block("entry",
			irbuild.Literal("1"),
			irbuild.Literal("0"),
			irbuild.Binary("/"),
			irbuild.Return(),
		).Build()

	return irbuild.NewModule("d").Function(main).Build()
}

// brokenBindingModule: const broken: int = 10 % 0; — fails to load.
func brokenBindingModule() *ir.Module {
	return irbuild.NewModule("d").
		Binding("broken",
			irbuild.Literal("10"),
			irbuild.Literal("0"),
			irbuild.Binary("%"),
			irbuild.Store("broken"),
		).
		Build()
}
