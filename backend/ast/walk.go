package ast

// Inspect traverses the tree rooted at node in depth-first order, calling
// fn for each node. Children are skipped when fn returns false.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *BinaryOp:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *Call:
		for _, a := range n.Args {
			Inspect(a, fn)
		}
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, fn)
		}
	case *VarDecl:
		Inspect(n.Init, fn)
	case *If:
		Inspect(n.Cond, fn)
		if n.Then != nil {
			Inspect(n.Then, fn)
		}
		if n.Else != nil {
			Inspect(n.Else, fn)
		}
	case *Return:
		Inspect(n.Value, fn)
	case *FuncDecl:
		if n.Body != nil {
			Inspect(n.Body, fn)
		}
	}
}
