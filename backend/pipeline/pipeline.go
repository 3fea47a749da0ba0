// Package pipeline turns any accepted input form into an executable IR
// program.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/mod/sumdb/dirhash"
	"golang.org/x/tools/txtar"

	"github.com/tenntenn/minilang/backend/ast"
	"github.com/tenntenn/minilang/backend/diag"
	"github.com/tenntenn/minilang/backend/ir"
	"github.com/tenntenn/minilang/backend/parser"
)

// Format names an input form
type Format string

const (
	FormatSingle Format = "single" // one source file
	FormatTxtar  Format = "txtar"  // txtar archive of source files
	FormatIR     Format = "ir"     // IR text
)

// ParseFormat validates a format name. The empty string means FormatSingle.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatSingle, nil
	case FormatSingle, FormatTxtar, FormatIR:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// DetectFormat guesses the format of a file from its extension
func DetectFormat(path string) Format {
	switch filepath.Ext(path) {
	case ".ir":
		return FormatIR
	case ".txtar":
		return FormatTxtar
	}
	return FormatSingle
}

// File is one named input
type File struct {
	Name string
	Data []byte
}

// Output is the result of Load
type Output struct {
	Format      Format
	Files       []File
	ASTs        []*ast.Program // nil for FormatIR
	Program     *ir.Program
	Warnings    diag.List
	Fingerprint string
}

// Load builds the IR program for code. The name labels positions of a
// single source file. Parse, lexical and IR format errors are returned
// as is.
func Load(ctx context.Context, format Format, name string, code []byte) (*Output, error) {
	out := &Output{Format: format}

	switch format {
	case FormatSingle:
		out.Files = []File{{Name: name, Data: code}}
		prog, warnings, err := parser.ParseFile(name, string(code))
		if err != nil {
			return nil, err
		}
		out.ASTs = []*ast.Program{prog}
		out.Warnings = warnings

	case FormatTxtar:
		archive := txtar.Parse(code)
		for _, f := range archive.Files {
			out.Files = append(out.Files, File{Name: f.Name, Data: f.Data})
		}
		progs, warnings, err := parser.ParseArchive(ctx, archive)
		if err != nil {
			return nil, err
		}
		out.ASTs = progs
		out.Warnings = warnings

	case FormatIR:
		out.Files = []File{{Name: name, Data: code}}
		prog, err := ir.Unmarshal(code)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out.Program = prog

	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	if out.Program == nil {
		g := ir.NewGenerator()
		out.Program = g.Generate(out.ASTs...)
		out.Warnings = append(out.Warnings, g.Warnings()...)
	}

	fp, err := Fingerprint(format, out.Files)
	if err != nil {
		return nil, err
	}
	out.Fingerprint = fp
	return out, nil
}

// Fingerprint returns a content hash of the inputs, in the h1: form used
// by go.sum. Equal inputs give equal fingerprints.
func Fingerprint(format Format, files []File) (string, error) {
	// File names may repeat inside an archive, so each is prefixed with
	// its position. The format is hashed as a file of its own.
	data := map[string][]byte{"format": []byte(format)}
	names := []string{"format"}
	for i, f := range files {
		name := fmt.Sprintf("%04d/%s", i, f.Name)
		data[name] = f.Data
		names = append(names, name)
	}

	return dirhash.Hash1(names, func(name string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data[name])), nil
	})
}
