// Command minilang compiles and runs minilang programs.
//
// A .ir file is loaded and run as is. Any other file is compiled first and
// its IR written next to it with the .ir extension, then the entry
// function is run and its result printed.
//
//	minilang [flags] <file.mini | file.txtar | file.ir>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tenntenn/minilang/backend/ir"
	"github.com/tenntenn/minilang/backend/lexer"
	"github.com/tenntenn/minilang/backend/model"
	"github.com/tenntenn/minilang/backend/parser"
	"github.com/tenntenn/minilang/backend/pipeline"
	"github.com/tenntenn/minilang/backend/vm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type config struct {
	entry    string
	args     []int32
	out      string
	noWrite  bool
	dump     bool
	ast      bool
	tokens   bool
	maxSteps int64
	maxDepth int
	trace    bool
	path     string
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	var (
		cfg     config
		argList string
	)
	fs := flag.NewFlagSet("minilang", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.entry, "entry", "main", "function to run")
	fs.StringVar(&argList, "args", "", "comma separated integer arguments for the entry function")
	fs.StringVar(&cfg.out, "o", "", "IR output path (default: input path with the .ir extension)")
	fs.BoolVar(&cfg.noWrite, "no-write", false, "do not write the IR file")
	fs.BoolVar(&cfg.dump, "dump", false, "print the IR to stdout")
	fs.BoolVar(&cfg.ast, "ast", false, "print the AST as JSON to stdout")
	fs.BoolVar(&cfg.tokens, "tokens", false, "print the tokens of a source file to stdout")
	fs.Int64Var(&cfg.maxSteps, "max-steps", 0, "stop after this many instructions (0: no limit)")
	fs.IntVar(&cfg.maxDepth, "max-depth", vm.DefaultMaxDepth, "maximum call depth (0: default)")
	fs.BoolVar(&cfg.trace, "trace", false, "log every executed instruction")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: minilang [flags] <file.mini | file.txtar | file.ir>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("exactly one input file is required")
	}
	cfg.path = fs.Arg(0)

	if argList != "" {
		for _, s := range strings.Split(argList, ",") {
			v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid -args: %w", err)
			}
			cfg.args = append(cfg.args, int32(v))
		}
	}
	return &cfg, nil
}

// run executes the command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "minilang: ", 0)

	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		logger.Print(err)
		return 2
	}

	if err := execute(ctx, cfg, stdout, logger); err != nil {
		logger.Print(err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, cfg *config, stdout io.Writer, logger *log.Logger) error {
	code, err := os.ReadFile(cfg.path)
	if err != nil {
		return err
	}
	format := pipeline.DetectFormat(cfg.path)

	if cfg.tokens {
		if format != pipeline.FormatSingle {
			return fmt.Errorf("-tokens needs a single source file, got %s input", format)
		}
		toks, err := lexer.Tokenize(cfg.path, string(code))
		if err != nil {
			return err
		}
		for _, tok := range toks {
			fmt.Fprintf(stdout, "%s\t%s\n", tok.Pos, tok)
		}
	}

	out, err := pipeline.Load(ctx, format, cfg.path, code)
	if err != nil {
		return err
	}
	for _, w := range out.Warnings {
		logger.Print(w)
	}

	if cfg.ast {
		nodes := make([]*model.ASTNode, 0, len(out.ASTs))
		for _, prog := range out.ASTs {
			nodes = append(nodes, parser.ConvertAST(prog))
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(nodes); err != nil {
			return err
		}
	}

	text := ir.Marshal(out.Program)
	if cfg.dump {
		if _, err := stdout.Write(text); err != nil {
			return err
		}
	}

	if format != pipeline.FormatIR && !cfg.noWrite {
		dst := cfg.out
		if dst == "" {
			dst = strings.TrimSuffix(cfg.path, filepath.Ext(cfg.path)) + ".ir"
		}
		if err := os.WriteFile(dst, text, 0o644); err != nil {
			return err
		}
		logger.Printf("IR written to %s", dst)
	}

	opts := []vm.Option{vm.WithMaxDepth(cfg.maxDepth), vm.WithMaxSteps(cfg.maxSteps)}
	if cfg.trace {
		opts = append(opts, vm.WithTrace(func(fn string, pc int, in ir.Instruction, depth int) {
			logger.Printf("%s%s@%d %s", strings.Repeat("  ", depth-1), fn, pc, in)
		}))
	}

	result, err := vm.New(out.Program, opts...).Run(ctx, cfg.entry, cfg.args...)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, result)
	return nil
}
