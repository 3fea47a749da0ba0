package ir

import "github.com/tenntenn/minilang/backend/model"

// ConvertProgram converts every function of prog to our model
func ConvertProgram(prog *Program) []*model.IRFunction {
	var functions []*model.IRFunction
	for _, fn := range prog.Funcs() {
		functions = append(functions, convertFunction(fn))
	}
	return functions
}

// convertFunction converts a Function to our model
func convertFunction(fn *Function) *model.IRFunction {
	result := &model.IRFunction{
		Name:         fn.Name,
		Params:       append([]string{}, fn.Params...),
		Instructions: []model.Instruction{},
		Blocks:       []model.BasicBlock{},
	}

	// Convert basic blocks
	blocks := SplitBlocks(fn)
	for _, b := range blocks {
		bb := model.BasicBlock{
			Index:        b.Index,
			Instructions: []int{},
			Successors:   append([]int{}, b.Succs...),
			Predecessors: append([]int{}, b.Preds...),
		}
		for i := b.Start; i < b.End; i++ {
			bb.Instructions = append(bb.Instructions, i)
		}
		result.Blocks = append(result.Blocks, bb)
	}

	// Convert instructions
	for _, b := range blocks {
		for i := b.Start; i < b.End; i++ {
			result.Instructions = append(result.Instructions, convertInstruction(fn.Body[i], i, b.Index))
		}
	}

	return result
}

// convertInstruction converts an Instruction to our model
func convertInstruction(in Instruction, index, blockIdx int) model.Instruction {
	inst := model.Instruction{
		Index:  index,
		Text:   in.String(),
		Opcode: in.Op.String(),
		Block:  blockIdx,
	}
	if in.Op.IsJump() {
		target := in.Target
		inst.Target = &target
	}
	return inst
}
