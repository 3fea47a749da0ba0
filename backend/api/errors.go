package api

import (
	"errors"

	"github.com/tenntenn/minilang/backend/diag"
	"github.com/tenntenn/minilang/backend/ir"
	"github.com/tenntenn/minilang/backend/lexer"
	"github.com/tenntenn/minilang/backend/model"
	"github.com/tenntenn/minilang/backend/parser"
	"github.com/tenntenn/minilang/backend/token"
)

// convertError flattens err into model.ParseErrors, one per joined error
func convertError(err error) []model.ParseError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var errs []model.ParseError
		for _, e := range joined.Unwrap() {
			errs = append(errs, convertError(e)...)
		}
		return errs
	}

	return []model.ParseError{{
		Message:  err.Error(),
		Position: errorPosition(err),
		Severity: string(diag.SeverityError),
	}}
}

// errorPosition extracts the source position carried by err, if any
func errorPosition(err error) model.Position {
	var (
		lexErr    *lexer.Error
		parseErr  *parser.Error
		formatErr *ir.FormatError
	)
	switch {
	case errors.As(err, &lexErr):
		return position(lexErr.Pos)
	case errors.As(err, &parseErr):
		return position(parseErr.Pos)
	case errors.As(err, &formatErr):
		return model.Position{Line: formatErr.Line}
	}
	return model.Position{}
}

func convertWarnings(list diag.List) []model.ParseError {
	var errs []model.ParseError
	for _, d := range list {
		errs = append(errs, model.ParseError{
			Message:  d.Message,
			Position: position(d.Pos),
			Severity: string(d.Severity),
		})
	}
	return errs
}

func position(pos token.Pos) model.Position {
	return model.Position{
		File:   pos.File,
		Line:   pos.Line,
		Column: pos.Column,
		Offset: pos.Offset,
	}
}
