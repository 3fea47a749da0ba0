package model

// CompileRequest represents a request to compile minilang code
type CompileRequest struct {
	Code   string `json:"code"`
	Format string `json:"format"` // "single", "txtar" or "ir"
}

// RunRequest represents a request to compile and execute minilang code
type RunRequest struct {
	Code     string  `json:"code"`
	Format   string  `json:"format"`
	Entry    string  `json:"entry,omitempty"` // defaults to "main"
	Args     []int32 `json:"args,omitempty"`
	MaxSteps int64   `json:"maxSteps,omitempty"`
}

// Position represents a position in source code
type Position struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

// FileInfo is one file of a txtar archive
type FileInfo struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ASTNode represents a node in the AST
type ASTNode struct {
	Type     string      `json:"type"`
	Start    Position    `json:"start"`
	Value    interface{} `json:"value,omitempty"`
	Children []*ASTNode  `json:"children,omitempty"`
}

// IRFunction represents a compiled function
type IRFunction struct {
	Name         string        `json:"name"`
	Params       []string      `json:"params"`
	Instructions []Instruction `json:"instructions"`
	Blocks       []BasicBlock  `json:"blocks"`
}

// Instruction represents a single IR instruction
type Instruction struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Opcode string `json:"opcode"`
	Target *int   `json:"target,omitempty"` // jump target for IFFALSE and GOTO
	Block  int    `json:"block"`
}

// BasicBlock represents a straight-line run of instructions
type BasicBlock struct {
	Index        int   `json:"index"`
	Instructions []int `json:"instructions"` // indices into Instructions array
	Successors   []int `json:"successors"`   // indices of successor blocks
	Predecessors []int `json:"predecessors"` // indices of predecessor blocks
}

// CompileResponse represents the response from compiling
type CompileResponse struct {
	AST         []*ASTNode    `json:"ast,omitempty"` // one per source file
	IR          string        `json:"ir,omitempty"`
	Functions   []*IRFunction `json:"functions,omitempty"`
	Files       []FileInfo    `json:"files,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Errors      []ParseError  `json:"errors,omitempty"`
}

// RunResponse represents the result of executing the entry function
type RunResponse struct {
	Result      int32        `json:"result"`
	OK          bool         `json:"ok"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Errors      []ParseError `json:"errors,omitempty"`
}

// ParseError represents a compile, load or runtime diagnostic
type ParseError struct {
	Message  string   `json:"message"`
	Position Position `json:"position"`
	Severity string   `json:"severity"` // "error" or "warning"
}
