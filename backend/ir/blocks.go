package ir

import "slices"

// Block is a maximal straight-line run of instructions [Start, End)
type Block struct {
	Index int
	Start int
	End   int
	Succs []int
	Preds []int
}

// SplitBlocks partitions the body of fn into basic blocks. A block starts
// at instruction 0, at every jump target and after every jump or return.
// Jumps to the end of the body have no successor block.
func SplitBlocks(fn *Function) []*Block {
	n := len(fn.Body)
	if n == 0 {
		return nil
	}

	leader := make([]bool, n)
	leader[0] = true
	for i, in := range fn.Body {
		if in.Op.IsJump() && in.Target < n {
			leader[in.Target] = true
		}
		if (in.Op.IsJump() || in.Op == RETURN) && i+1 < n {
			leader[i+1] = true
		}
	}

	var blocks []*Block
	blockAt := make([]int, n)
	for i := 0; i < n; i++ {
		if leader[i] {
			if len(blocks) > 0 {
				blocks[len(blocks)-1].End = i
			}
			blocks = append(blocks, &Block{Index: len(blocks), Start: i})
		}
		blockAt[i] = len(blocks) - 1
	}
	blocks[len(blocks)-1].End = n

	link := func(from *Block, target int) {
		if target >= n {
			return
		}
		to := blockAt[target]
		if !slices.Contains(from.Succs, to) {
			from.Succs = append(from.Succs, to)
			blocks[to].Preds = append(blocks[to].Preds, from.Index)
		}
	}

	for _, b := range blocks {
		last := fn.Body[b.End-1]
		switch last.Op {
		case RETURN:
		case GOTO:
			link(b, last.Target)
		case IFFALSE:
			link(b, b.End)
			link(b, last.Target)
		default:
			link(b, b.End)
		}
	}
	return blocks
}
