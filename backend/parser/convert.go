package parser

import (
	"reflect"

	"github.com/tenntenn/minilang/backend/ast"
	"github.com/tenntenn/minilang/backend/model"
	"github.com/tenntenn/minilang/backend/token"
)

// ConvertAST converts a parsed program to our model.ASTNode tree
func ConvertAST(prog *ast.Program) *model.ASTNode {
	if prog == nil {
		return nil
	}

	result := &model.ASTNode{
		Type:  "Program",
		Start: positionFromPos(token.Pos{File: prog.File}),
		Value: map[string]interface{}{"file": prog.File},
	}
	for _, stmt := range prog.Stmts {
		if child := convertASTNode(stmt); child != nil {
			result.Children = append(result.Children, child)
		}
	}
	return result
}

// convertASTNode converts an ast.Node to our model.ASTNode
func convertASTNode(node ast.Node) *model.ASTNode {
	if node == nil || reflect.ValueOf(node).IsNil() {
		return nil
	}

	result := &model.ASTNode{
		Type:  getNodeType(node),
		Start: positionFromPos(node.Position()),
	}

	// Add node-specific information and children
	switch n := node.(type) {
	case *ast.FuncDecl:
		result.Value = map[string]interface{}{
			"name":   n.Name,
			"params": n.Params,
		}
		if child := convertASTNode(n.Body); child != nil {
			result.Children = append(result.Children, child)
		}

	case *ast.Block:
		for _, stmt := range n.Stmts {
			if child := convertASTNode(stmt); child != nil {
				result.Children = append(result.Children, child)
			}
		}

	case *ast.VarDecl:
		result.Value = map[string]interface{}{"name": n.Name}
		if child := convertASTNode(n.Init); child != nil {
			result.Children = append(result.Children, child)
		}

	case *ast.If:
		result.Value = map[string]interface{}{"else": n.Else != nil}
		if child := convertASTNode(n.Cond); child != nil {
			result.Children = append(result.Children, child)
		}
		if child := convertASTNode(n.Then); child != nil {
			result.Children = append(result.Children, child)
		}
		if n.Else != nil {
			if child := convertASTNode(n.Else); child != nil {
				result.Children = append(result.Children, child)
			}
		}

	case *ast.Return:
		if child := convertASTNode(n.Value); child != nil {
			result.Children = append(result.Children, child)
		}

	case *ast.BinaryOp:
		result.Value = map[string]interface{}{"op": n.Op.String()}
		if child := convertASTNode(n.Left); child != nil {
			result.Children = append(result.Children, child)
		}
		if child := convertASTNode(n.Right); child != nil {
			result.Children = append(result.Children, child)
		}

	case *ast.Call:
		result.Value = map[string]interface{}{"name": n.Name}
		for _, arg := range n.Args {
			if child := convertASTNode(arg); child != nil {
				result.Children = append(result.Children, child)
			}
		}

	case *ast.VarRef:
		result.Value = map[string]interface{}{"name": n.Name}

	case *ast.NumberLit:
		result.Value = map[string]interface{}{"value": n.Value}
	}

	return result
}

// getNodeType returns the type name of an AST node
func getNodeType(node ast.Node) string {
	t := reflect.TypeOf(node)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// positionFromPos converts a token.Pos to our model.Position
func positionFromPos(pos token.Pos) model.Position {
	if !pos.IsValid() {
		return model.Position{File: pos.File}
	}
	return model.Position{
		File:   pos.File,
		Line:   pos.Line,
		Column: pos.Column,
		Offset: pos.Offset,
	}
}
