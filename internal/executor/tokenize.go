package executor

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// Tokenize splits command into argv using POSIX shell word rules. Quotes
// group words and are removed. Nothing is expanded or executed: any construct
// other than one simple command made of literal words is rejected with
// ErrUnsupportedSyntax.
func Tokenize(command string) ([]string, error) {
	return tokenize(command, false)
}

// tokenize optionally keeps backslashes literal, for Windows paths.
func tokenize(command string, literalBackslash bool) ([]string, error) {
	src := command
	if literalBackslash {
		src = strings.ReplaceAll(src, `\`, `\\`)
	}

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangPOSIX))
	file, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSyntax, err)
	}
	if len(file.Stmts) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrUnsupportedSyntax)
	}
	if len(file.Stmts) > 1 {
		return nil, fmt.Errorf("%w: multiple statements", ErrUnsupportedSyntax)
	}

	stmt := file.Stmts[0]
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, fmt.Errorf("%w: statement modifiers or redirection", ErrUnsupportedSyntax)
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, fmt.Errorf("%w: not a simple command", ErrUnsupportedSyntax)
	}
	if len(call.Assigns) > 0 {
		return nil, fmt.Errorf("%w: variable assignment", ErrUnsupportedSyntax)
	}

	argv := make([]string, 0, len(call.Args))
	for _, word := range call.Args {
		if err := checkLiteral(word); err != nil {
			return nil, err
		}
		s, err := expand.Literal(nil, word)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedSyntax, err)
		}
		argv = append(argv, s)
	}
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("%w: empty command", ErrUnsupportedSyntax)
	}
	return argv, nil
}

// checkLiteral accepts plain, single-quoted and double-quoted text only.
func checkLiteral(word *syntax.Word) error {
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
		case *syntax.SglQuoted:
			if p.Dollar {
				return fmt.Errorf("%w: $'...' quoting", ErrUnsupportedSyntax)
			}
		case *syntax.DblQuoted:
			if p.Dollar {
				return fmt.Errorf("%w: $\"...\" quoting", ErrUnsupportedSyntax)
			}
			for _, inner := range p.Parts {
				if _, ok := inner.(*syntax.Lit); !ok {
					return fmt.Errorf("%w: expansion inside quotes", ErrUnsupportedSyntax)
				}
			}
		default:
			return fmt.Errorf("%w: expansion or substitution", ErrUnsupportedSyntax)
		}
	}
	return nil
}
