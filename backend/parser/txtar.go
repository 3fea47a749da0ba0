package parser

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/txtar"

	"github.com/tenntenn/minilang/backend/ast"
	"github.com/tenntenn/minilang/backend/diag"
)

// ErrEmptyArchive is returned for a txtar archive without files
var ErrEmptyArchive = errors.New("no files found in txtar archive")

// ParseArchive parses every file of the archive concurrently. Programs and
// warnings are returned in archive order; a nil program marks a file that
// failed to parse. Errors of all files are joined.
func ParseArchive(ctx context.Context, archive *txtar.Archive) ([]*ast.Program, diag.List, error) {
	if len(archive.Files) == 0 {
		return nil, nil, ErrEmptyArchive
	}

	progs := make([]*ast.Program, len(archive.Files))
	warns := make([]diag.List, len(archive.Files))
	errs := make([]error, len(archive.Files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range archive.Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			prog, w, err := ParseFile(file.Name, string(file.Data))
			if err != nil {
				errs[i] = err
				return nil
			}
			progs[i], warns[i] = prog, w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings diag.List
	for _, w := range warns {
		warnings = append(warnings, w...)
	}
	return progs, warnings, errors.Join(errs...)
}
