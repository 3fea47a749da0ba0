package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/tools/txtar"

	"github.com/tenntenn/minilang/backend/ir"
	"github.com/tenntenn/minilang/backend/lexer"
	"github.com/tenntenn/minilang/backend/parser"
	"github.com/tenntenn/minilang/backend/pipeline"
	"github.com/tenntenn/minilang/backend/vm"
)

// golden is a testdata archive split into its parts
type golden struct {
	sources *txtar.Archive // the .mini files
	wantIR  string
	result  *int32
	errMsg  string
}

func readGolden(t *testing.T, path string) golden {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}

	g := golden{sources: &txtar.Archive{}}
	for _, f := range ar.Files {
		switch {
		case strings.HasSuffix(f.Name, ".mini"):
			g.sources.Files = append(g.sources.Files, f)
		case f.Name == "want.ir":
			g.wantIR = string(f.Data)
		case f.Name == "want.result":
			v, err := strconv.ParseInt(strings.TrimSpace(string(f.Data)), 10, 32)
			if err != nil {
				t.Fatalf("%s: bad want.result: %v", path, err)
			}
			r := int32(v)
			g.result = &r
		case f.Name == "want.error":
			g.errMsg = strings.TrimSpace(string(f.Data))
		default:
			t.Fatalf("%s: unexpected file %s", path, f.Name)
		}
	}
	return g
}

func run(prog *ir.Program) (int32, error) {
	return vm.New(prog, vm.WithMaxSteps(1_000_000)).Run(context.Background(), "main")
}

func TestGolden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no testdata")
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			g := readGolden(t, path)
			ctx := context.Background()

			out, err := pipeline.Load(ctx, pipeline.FormatTxtar, "", txtar.Format(g.sources))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			text := string(ir.Marshal(out.Program))
			if diff := cmp.Diff(g.wantIR, text); diff != "" {
				t.Errorf("IR mismatch (-want +got):\n%s", diff)
			}

			// The IR text must load back into a program that behaves the same.
			reloaded, err := pipeline.Load(ctx, pipeline.FormatIR, "want.ir", []byte(text))
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if diff := cmp.Diff(out.Program.Funcs(), reloaded.Program.Funcs(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("reloaded program differs (-compiled +reloaded):\n%s", diff)
			}

			for _, prog := range []*ir.Program{out.Program, reloaded.Program} {
				got, err := run(prog)
				switch {
				case g.errMsg != "":
					if err == nil || !strings.Contains(err.Error(), g.errMsg) {
						t.Errorf("expected error containing %q, got %v (result %d)", g.errMsg, err, got)
					}
				case err != nil:
					t.Errorf("unexpected error: %v", err)
				case g.result != nil && got != *g.result:
					t.Errorf("expected %d, got %d", *g.result, got)
				}
			}
		})
	}
}

func TestLoadSingle(t *testing.T) {
	out, err := pipeline.Load(context.Background(), pipeline.FormatSingle, "main.mini",
		[]byte("42 fn main() { return 6 / 2; }"))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.ASTs) != 1 || out.ASTs[0].File != "main.mini" {
		t.Errorf("unexpected ASTs %v", out.ASTs)
	}
	// One skipped token and one dropped operator.
	if len(out.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", out.Warnings)
	}
	if !strings.HasPrefix(out.Fingerprint, "h1:") {
		t.Errorf("unexpected fingerprint %q", out.Fingerprint)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		format pipeline.Format
		code   string
		want   error
	}{
		{"lexical", pipeline.FormatSingle, "fn main() { return 1 ? 2; }", lexer.ErrIllegalChar},
		{"syntax", pipeline.FormatSingle, "fn main() { x; }", parser.ErrSyntax},
		{"empty archive", pipeline.FormatTxtar, "just a comment\n", parser.ErrEmptyArchive},
		{"archive file", pipeline.FormatTxtar, "-- a.mini --\nfn a() { return 99999999999; }\n", lexer.ErrIntOverflow},
		{"malformed ir", pipeline.FormatIR, "FUNC main\n  NOP\nENDFUNC\n", ir.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.Load(context.Background(), tt.format, "in", []byte(tt.code))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := []pipeline.File{{Name: "a.mini", Data: []byte("fn main() { return 1; }")}}
	b := []pipeline.File{{Name: "a.mini", Data: []byte("fn main() { return 2; }")}}

	fa1, err := pipeline.Fingerprint(pipeline.FormatSingle, a)
	if err != nil {
		t.Fatal(err)
	}
	fa2, _ := pipeline.Fingerprint(pipeline.FormatSingle, a)
	fb, _ := pipeline.Fingerprint(pipeline.FormatSingle, b)
	fir, _ := pipeline.Fingerprint(pipeline.FormatIR, a)

	if fa1 != fa2 {
		t.Errorf("fingerprint is not stable: %s != %s", fa1, fa2)
	}
	if fa1 == fb {
		t.Error("different contents share a fingerprint")
	}
	if fa1 == fir {
		t.Error("different formats share a fingerprint")
	}
}

func TestFormats(t *testing.T) {
	tests := []struct {
		in   string
		want pipeline.Format
		err  bool
	}{
		{"", pipeline.FormatSingle, false},
		{"single", pipeline.FormatSingle, false},
		{"txtar", pipeline.FormatTxtar, false},
		{"ir", pipeline.FormatIR, false},
		{"zip", "", true},
	}
	for _, tt := range tests {
		got, err := pipeline.ParseFormat(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}

	detect := map[string]pipeline.Format{
		"prog.ir":       pipeline.FormatIR,
		"dir/x.txtar":   pipeline.FormatTxtar,
		"main.mini":     pipeline.FormatSingle,
		"no_extension":  pipeline.FormatSingle,
		"archive.ir.gz": pipeline.FormatSingle,
	}
	for path, want := range detect {
		if got := pipeline.DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", path, got, want)
		}
	}
}
