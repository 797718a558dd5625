package ssa

import (
	"impulse/internal/cfg"
	"impulse/internal/dominance"
	"impulse/internal/ir"
)

// symbolTable interns source-level names and synthesizes temporaries,
// assigning each a dense SymbolID. Grounded on ssa.cpp's SymbolTable.
type symbolTable struct {
	nextID      SymbolID
	tempCounter uint64
	symbols     []Symbol
	nameToID    map[string]SymbolID
}

func newSymbolTable() *symbolTable {
	return &symbolTable{nextID: 1, nameToID: map[string]SymbolID{}}
}

func (t *symbolTable) addParameter(name, typ string) {
	id := t.nextID
	t.nextID++
	t.symbols = append(t.symbols, Symbol{ID: id, Name: name, Type: typ})
	t.nameToID[name] = id
}

func (t *symbolTable) getOrCreate(name string) SymbolID {
	if id, ok := t.nameToID[name]; ok {
		return id
	}
	id := t.nextID
	t.nextID++
	t.symbols = append(t.symbols, Symbol{ID: id, Name: name})
	t.nameToID[name] = id
	return id
}

func (t *symbolTable) createTemporary() SymbolID {
	id := t.nextID
	t.nextID++
	name := "%t" + itoa(int(t.tempCounter))
	t.tempCounter++
	t.symbols = append(t.symbols, Symbol{ID: id, Name: name})
	t.nameToID[name] = id
	return id
}

func (t *symbolTable) find(name string) (SymbolID, bool) {
	id, ok := t.nameToID[name]
	return id, ok
}

// Build constructs pruned SSA for fn over its CFG graph g: φ-placement at
// iterated dominance frontiers of every symbol's definition sites, then a
// dominator-tree-preorder rename pass that lowers the stack IR to
// three-address SSA. Grounded on ssa.cpp's build_ssa.
func Build(fn *ir.Function, g *cfg.Graph) *Function {
	symbols := newSymbolTable()
	for _, p := range fn.Parameters {
		symbols.addParameter(p.Name.Name, p.Type)
	}

	info := dominance.Compute(g)

	out := &Function{Name: fn.Name}
	out.Blocks = make([]Block, len(g.Blocks))
	for i, b := range g.Blocks {
		out.Blocks[i] = Block{
			ID:                 i,
			Name:               b.Name,
			Predecessors:       append([]int(nil), b.Predecessors...),
			Successors:         append([]int(nil), b.Successors...),
			ImmediateDominator: info.Idom[i],
			DominatorChildren:  append([]int(nil), info.Children[i]...),
			DominanceFrontier:  append([]int(nil), info.Frontier[i]...),
		}
	}

	placePhis(out, fn, g, symbols, info)

	rc := &renameContext{
		fn:       fn,
		g:        g,
		out:      out,
		symbols:  symbols,
		stacks:   map[SymbolID][]uint32{},
		counters: map[SymbolID]uint32{},
	}
	rc.run()

	out.Symbols = symbols.symbols
	out.indexSymbols()
	return out
}

// placePhis computes, for every symbol, the set of blocks where it is
// stored (parameters contribute block 0), then floods iterated dominance
// frontiers with φ-nodes (duplicate-suppressed) per spec §4.D.
func placePhis(out *Function, fn *ir.Function, g *cfg.Graph, symbols *symbolTable, info *dominance.Info) {
	definitionSites := map[SymbolID][]int{}

	for blockIdx, block := range g.Blocks {
		for _, inst := range g.Instructions[block.Start:block.End] {
			if inst.Kind != ir.OpStore || len(inst.Operands) == 0 {
				continue
			}
			id := symbols.getOrCreate(inst.Operands[0])
			definitionSites[id] = append(definitionSites[id], blockIdx)
		}
	}

	if len(out.Blocks) > 0 {
		for _, p := range fn.Parameters {
			if id, ok := symbols.find(p.Name.Name); ok {
				definitionSites[id] = append(definitionSites[id], 0)
			}
		}
	}

	existingPhi := make([]map[SymbolID]bool, len(out.Blocks))
	for i := range existingPhi {
		existingPhi[i] = map[SymbolID]bool{}
	}

	for symbol, sites := range definitionSites {
		worklist := append([]int(nil), sites...)
		visited := map[int]bool{}
		for _, s := range sites {
			visited[s] = true
		}

		for len(worklist) > 0 {
			block := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			if block >= len(info.Frontier) {
				continue
			}
			for _, frontierBlock := range info.Frontier[block] {
				if frontierBlock >= len(out.Blocks) || existingPhi[frontierBlock][symbol] {
					continue
				}
				existingPhi[frontierBlock][symbol] = true
				out.Blocks[frontierBlock].Phis = append(out.Blocks[frontierBlock].Phis, PhiNode{
					Symbol: symbol,
					Result: Value{Symbol: symbol, Version: 0},
				})
				if !visited[frontierBlock] {
					visited[frontierBlock] = true
					worklist = append(worklist, frontierBlock)
				}
			}
		}
	}

	for i := range out.Blocks {
		block := &out.Blocks[i]
		for p := range block.Phis {
			phi := &block.Phis[p]
			phi.Inputs = make([]PhiInput, len(block.Predecessors))
			for j, pred := range block.Predecessors {
				phi.Inputs[j] = PhiInput{Predecessor: pred}
			}
		}
	}
}

// renameContext performs the dominator-tree-preorder rename, maintaining
// per-symbol version stacks and materializing a local evaluation stack of
// SSA values per block to lower the stack IR to three-address SSA in one
// pass (design note §9: "unify push temporary and fresh SSA value").
type renameContext struct {
	fn       *ir.Function
	g        *cfg.Graph
	out      *Function
	symbols  *symbolTable
	stacks   map[SymbolID][]uint32
	counters map[SymbolID]uint32
}

func (rc *renameContext) run() {
	rc.initializeParameters()
	if len(rc.out.Blocks) > 0 {
		rc.renameBlock(0)
	}
}

func (rc *renameContext) initializeParameters() {
	for _, p := range rc.fn.Parameters {
		id, ok := rc.symbols.find(p.Name.Name)
		if !ok {
			continue
		}
		rc.pushExisting(id, 1)
	}
}

func (rc *renameContext) pushExisting(symbol SymbolID, version uint32) {
	rc.stacks[symbol] = append(rc.stacks[symbol], version)
	if rc.counters[symbol] < version {
		rc.counters[symbol] = version
	}
}

func (rc *renameContext) nextVersion(symbol SymbolID) Value {
	rc.counters[symbol]++
	v := rc.counters[symbol]
	rc.stacks[symbol] = append(rc.stacks[symbol], v)
	return Value{Symbol: symbol, Version: v}
}

func (rc *renameContext) current(symbol SymbolID) (Value, bool) {
	stack := rc.stacks[symbol]
	if len(stack) == 0 {
		return Value{}, false
	}
	return Value{Symbol: symbol, Version: stack[len(stack)-1]}, true
}

func (rc *renameContext) pop(symbol SymbolID) {
	stack := rc.stacks[symbol]
	if len(stack) == 0 {
		return
	}
	rc.stacks[symbol] = stack[:len(stack)-1]
}

func (rc *renameContext) makeTemporary() Value {
	id := rc.symbols.createTemporary()
	return Value{Symbol: id, Version: 1}
}

func popValue(stack []Value) ([]Value, Value) {
	n := len(stack)
	return stack[:n-1], stack[n-1]
}

// sourceInstructions returns the stack-IR instructions of CFG block
// cfgBlockIdx: each cfg.Block is a contiguous half-open range of the
// graph's flattened instruction list, so the slice is taken straight from
// the cfg graph rather than recomputing block boundaries.
func (rc *renameContext) sourceInstructions(cfgBlockIdx int) []ir.Instruction {
	b := rc.g.Blocks[cfgBlockIdx]
	if b.Start >= b.End {
		return nil
	}
	return rc.g.Instructions[b.Start:b.End]
}

func (rc *renameContext) renameBlock(blockIdx int) {
	if blockIdx >= len(rc.out.Blocks) {
		return
	}
	block := &rc.out.Blocks[blockIdx]

	var definedSymbols []SymbolID
	for p := range block.Phis {
		phi := &block.Phis[p]
		value := rc.nextVersion(phi.Symbol)
		phi.Result = value
		definedSymbols = append(definedSymbols, phi.Symbol)
	}

	var materialized []Instruction
	var evalStack []Value

	for _, inst := range rc.sourceInstructions(blockIdx) {
		switch inst.Kind {
		case ir.OpLiteral:
			result := rc.makeTemporary()
			out := Instruction{Op: OpLiteral, Result: result}
			if len(inst.Operands) > 0 {
				out.Immediates = []string{inst.Operands[0]}
			}
			materialized = append(materialized, out)
			evalStack = append(evalStack, result)

		case ir.OpStringLiteral:
			result := rc.makeTemporary()
			out := Instruction{Op: OpLiteralString, Result: result}
			if len(inst.Operands) > 0 {
				out.Immediates = []string{inst.Operands[0]}
			}
			materialized = append(materialized, out)
			evalStack = append(evalStack, result)

		case ir.OpReference:
			if len(inst.Operands) == 0 {
				break
			}
			id := rc.symbols.getOrCreate(inst.Operands[0])
			current, ok := rc.current(id)
			if !ok {
				current = Value{Symbol: id, Version: 0}
			}
			evalStack = append(evalStack, current)

		case ir.OpUnary:
			if len(evalStack) < 1 {
				break
			}
			var operand Value
			evalStack, operand = popValue(evalStack)
			result := rc.makeTemporary()
			out := Instruction{Op: OpUnary, Args: []Value{operand}, Result: result}
			if len(inst.Operands) > 0 {
				out.Immediates = []string{inst.Operands[0]}
			}
			materialized = append(materialized, out)
			evalStack = append(evalStack, result)

		case ir.OpBinary:
			if len(evalStack) < 2 {
				break
			}
			var rhs, lhs Value
			evalStack, rhs = popValue(evalStack)
			evalStack, lhs = popValue(evalStack)
			result := rc.makeTemporary()
			out := Instruction{Op: OpBinary, Args: []Value{lhs, rhs}, Result: result}
			if len(inst.Operands) > 0 {
				out.Immediates = []string{inst.Operands[0]}
			}
			materialized = append(materialized, out)
			evalStack = append(evalStack, result)

		case ir.OpStore:
			if len(inst.Operands) == 0 || len(evalStack) == 0 {
				break
			}
			var value Value
			evalStack, value = popValue(evalStack)
			id := rc.symbols.getOrCreate(inst.Operands[0])
			versioned := rc.nextVersion(id)
			definedSymbols = append(definedSymbols, id)
			materialized = append(materialized, Instruction{Op: OpAssign, Args: []Value{value}, Result: versioned})

		case ir.OpDrop:
			if len(evalStack) == 0 {
				break
			}
			var value Value
			evalStack, value = popValue(evalStack)
			materialized = append(materialized, Instruction{Op: OpDrop, Args: []Value{value}})

		case ir.OpBranch:
			out := Instruction{Op: OpBranch}
			if len(inst.Operands) > 0 {
				out.Immediates = []string{inst.Operands[0]}
			}
			materialized = append(materialized, out)

		case ir.OpBranchIf:
			if len(evalStack) == 0 {
				break
			}
			var cond Value
			evalStack, cond = popValue(evalStack)
			materialized = append(materialized, Instruction{
				Op:         OpBranchIf,
				Args:       []Value{cond},
				Immediates: append([]string(nil), inst.Operands...),
			})

		case ir.OpReturn:
			out := Instruction{Op: OpReturn}
			if len(evalStack) > 0 {
				var value Value
				evalStack, value = popValue(evalStack)
				out.Args = []Value{value}
			}
			materialized = append(materialized, out)

		case ir.OpCall:
			if len(inst.Operands) < 2 {
				break
			}
			argc := atoi(inst.Operands[1])
			if len(evalStack) < argc {
				break
			}
			args := make([]Value, argc)
			for i := 0; i < argc; i++ {
				var v Value
				evalStack, v = popValue(evalStack)
				args[argc-1-i] = v
			}
			result := rc.makeTemporary()
			materialized = append(materialized, Instruction{
				Op:         OpCall,
				Args:       args,
				Immediates: append([]string(nil), inst.Operands...),
				Result:     result,
			})
			evalStack = append(evalStack, result)

		case ir.OpMakeArray:
			if len(evalStack) == 0 {
				break
			}
			var length Value
			evalStack, length = popValue(evalStack)
			result := rc.makeTemporary()
			materialized = append(materialized, Instruction{Op: OpArrayMake, Args: []Value{length}, Result: result})
			evalStack = append(evalStack, result)

		case ir.OpArrayGet:
			if len(evalStack) < 2 {
				break
			}
			var index, array Value
			evalStack, index = popValue(evalStack)
			evalStack, array = popValue(evalStack)
			result := rc.makeTemporary()
			materialized = append(materialized, Instruction{Op: OpArrayGet, Args: []Value{array, index}, Result: result})
			evalStack = append(evalStack, result)

		case ir.OpArraySet:
			if len(evalStack) < 3 {
				break
			}
			var value, index, array Value
			evalStack, value = popValue(evalStack)
			evalStack, index = popValue(evalStack)
			evalStack, array = popValue(evalStack)
			result := rc.makeTemporary()
			materialized = append(materialized, Instruction{Op: OpArraySet, Args: []Value{array, index, value}, Result: result})
			evalStack = append(evalStack, result)

		case ir.OpArrayLength:
			if len(evalStack) == 0 {
				break
			}
			var array Value
			evalStack, array = popValue(evalStack)
			result := rc.makeTemporary()
			materialized = append(materialized, Instruction{Op: OpArrayLength, Args: []Value{array}, Result: result})
			evalStack = append(evalStack, result)

		case ir.OpLabel, ir.OpComment:
			// not executable
		}
	}

	block.Instructions = materialized

	for _, successor := range block.Successors {
		if successor >= len(rc.out.Blocks) {
			continue
		}
		succ := &rc.out.Blocks[successor]
		for p := range succ.Phis {
			phi := &succ.Phis[p]
			currentValue, _ := rc.current(phi.Symbol)
			found := false
			for i := range phi.Inputs {
				if phi.Inputs[i].Predecessor == blockIdx {
					phi.Inputs[i].Value = currentValue
					found = true
					break
				}
			}
			if !found {
				phi.Inputs = append(phi.Inputs, PhiInput{Predecessor: blockIdx, Value: currentValue})
			}
		}
	}

	for _, child := range block.DominatorChildren {
		rc.renameBlock(child)
	}

	for i := len(definedSymbols) - 1; i >= 0; i-- {
		rc.pop(definedSymbols[i])
	}
}
