package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/tenntenn/minilang/backend/ir"
	"github.com/tenntenn/minilang/backend/model"
	"github.com/tenntenn/minilang/backend/parser"
	"github.com/tenntenn/minilang/backend/pipeline"
	"github.com/tenntenn/minilang/backend/vm"
)

const (
	// ToolchainServiceName is the fully-qualified name of the service
	ToolchainServiceName = "minilang.v1.ToolchainService"

	CompileProcedure = "/" + ToolchainServiceName + "/Compile"
	RunProcedure     = "/" + ToolchainServiceName + "/Run"
)

// DefaultEntry is the function Run calls when the request names none
const DefaultEntry = "main"

// Option configures a ToolchainServiceHandler
type Option func(*ToolchainServiceHandler)

// WithMaxSteps caps the instructions a single Run may execute. A request
// may ask for less, never for more. Zero means no cap.
func WithMaxSteps(n int64) Option {
	return func(h *ToolchainServiceHandler) { h.maxSteps = n }
}

// WithMaxDepth caps the call depth of a single Run
func WithMaxDepth(n int) Option {
	return func(h *ToolchainServiceHandler) { h.maxDepth = n }
}

// WithCacheSize sets how many compiled programs are kept
func WithCacheSize(n int) Option {
	return func(h *ToolchainServiceHandler) { h.cache = newCache(n) }
}

// ToolchainServiceHandler implements the Connect RPC ToolchainService
type ToolchainServiceHandler struct {
	maxSteps int64
	maxDepth int
	cache    *cache
}

// NewToolchainServiceHandler creates a new ToolchainServiceHandler
func NewToolchainServiceHandler(opts ...Option) *ToolchainServiceHandler {
	h := &ToolchainServiceHandler{
		maxDepth: vm.DefaultMaxDepth,
		cache:    newCache(defaultCacheSize),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewToolchainServiceHTTPHandler builds an http.Handler serving every
// procedure of h. The returned path is the prefix to mount it on.
func NewToolchainServiceHTTPHandler(h *ToolchainServiceHandler) (string, http.Handler) {
	codec := connect.WithCodec(&JSONCodec{})
	mux := http.NewServeMux()
	mux.Handle(CompileProcedure, connect.NewUnaryHandler(CompileProcedure, h.Compile, codec))
	mux.Handle(RunProcedure, connect.NewUnaryHandler(RunProcedure, h.Run, codec))
	return "/" + ToolchainServiceName + "/", mux
}

// Compile handles the Compile RPC method. Compile failures are reported in
// the response, not as RPC errors.
func (h *ToolchainServiceHandler) Compile(
	ctx context.Context,
	req *connect.Request[model.CompileRequest],
) (*connect.Response[model.CompileResponse], error) {
	format, err := validate(req.Msg.Code, req.Msg.Format)
	if err != nil {
		return nil, err
	}

	out, err := h.load(ctx, format, req.Msg.Code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ctxErr)
		}
		return connect.NewResponse(&model.CompileResponse{Errors: convertError(err)}), nil
	}
	return connect.NewResponse(compileResponse(out)), nil
}

// Run handles the Run RPC method. The program is compiled (or fetched from
// the cache) and its entry function executed on a fresh VM.
func (h *ToolchainServiceHandler) Run(
	ctx context.Context,
	req *connect.Request[model.RunRequest],
) (*connect.Response[model.RunResponse], error) {
	format, err := validate(req.Msg.Code, req.Msg.Format)
	if err != nil {
		return nil, err
	}
	if req.Msg.MaxSteps < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("maxSteps must not be negative"))
	}

	out, err := h.load(ctx, format, req.Msg.Code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ctxErr)
		}
		return connect.NewResponse(&model.RunResponse{Errors: convertError(err)}), nil
	}

	entry := req.Msg.Entry
	if entry == "" {
		entry = DefaultEntry
	}
	m := vm.New(out.Program,
		vm.WithMaxDepth(h.maxDepth),
		vm.WithMaxSteps(h.steps(req.Msg.MaxSteps)),
	)
	result, err := m.Run(ctx, entry, req.Msg.Args...)

	resp := &model.RunResponse{
		Fingerprint: out.Fingerprint,
		Errors:      convertWarnings(out.Warnings),
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, contextError(err)
	case err != nil:
		resp.Errors = append(resp.Errors, convertError(err)...)
	default:
		resp.Result = result
		resp.OK = true
	}
	return connect.NewResponse(resp), nil
}

// steps picks the step limit for a run
func (h *ToolchainServiceHandler) steps(requested int64) int64 {
	switch {
	case h.maxSteps == 0:
		return requested
	case requested == 0 || requested > h.maxSteps:
		return h.maxSteps
	}
	return requested
}

// load compiles code once per distinct input. Concurrent requests for the
// same input share one compilation.
func (h *ToolchainServiceHandler) load(ctx context.Context, format pipeline.Format, code string) (*pipeline.Output, error) {
	key, err := pipeline.Fingerprint(format, []pipeline.File{{Name: "request", Data: []byte(code)}})
	if err != nil {
		return nil, err
	}
	return h.cache.get(ctx, key, func(ctx context.Context) (*pipeline.Output, error) {
		return pipeline.Load(ctx, format, inputName(format), []byte(code))
	})
}

// contextError maps a context failure to its Connect code
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeCanceled, err)
}

func inputName(format pipeline.Format) string {
	if format == pipeline.FormatIR {
		return "input.ir"
	}
	return "main.mini"
}

func validate(code, format string) (pipeline.Format, error) {
	if code == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, errors.New("code is required"))
	}
	f, err := pipeline.ParseFormat(format)
	if err != nil {
		return "", connect.NewError(connect.CodeUnimplemented, err)
	}
	return f, nil
}

func compileResponse(out *pipeline.Output) *model.CompileResponse {
	resp := &model.CompileResponse{
		IR:          string(ir.Marshal(out.Program)),
		Functions:   ir.ConvertProgram(out.Program),
		Fingerprint: out.Fingerprint,
		Errors:      convertWarnings(out.Warnings),
	}
	for _, prog := range out.ASTs {
		resp.AST = append(resp.AST, parser.ConvertAST(prog))
	}
	if out.Format == pipeline.FormatTxtar {
		for _, f := range out.Files {
			resp.Files = append(resp.Files, model.FileInfo{Name: f.Name, Content: string(f.Data)})
		}
	}
	return resp
}

// JSONCodec implements a plain JSON codec so model types need no protobuf
// definitions
type JSONCodec struct{}

func (c *JSONCodec) Name() string {
	return "json"
}

func (c *JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
