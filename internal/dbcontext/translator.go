package dbcontext

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

// Method names understood by the built-in translators.
const (
	MethodEqual          = "Equal"
	MethodNotEqual       = "NotEqual"
	MethodContains       = "Contains"
	MethodStartsWith     = "StartsWith"
	MethodEndsWith       = "EndsWith"
	MethodILike          = "ILike"
	MethodToLower        = "ToLower"
	MethodToUpper        = "ToUpper"
	MethodTrim           = "Trim"
	MethodLength         = "Length"
	MethodCoalesce       = "Coalesce"
	MethodNow            = "Now"
	MethodDateDiffDay    = "DateDiffDay"
	MethodDateDiffHour   = "DateDiffHour"
	MethodDateDiffMinute = "DateDiffMinute"
)

// TranslationContext carries the options that influence how a call is rendered.
type TranslationContext struct {
	UseRelationalNulls bool
}

// MethodCallTranslator maps a host-side method call to a SQL expression.
// ok is false when the translator does not know method.
type MethodCallTranslator interface {
	Translate(tc TranslationContext, method string, args []any) (expr clause.Expression, ok bool, err error)
}

// TranslatorProvider resolves method calls against an ordered set of translators.
type TranslatorProvider interface {
	Name() string
	Translate(tc TranslationContext, method string, args ...any) (clause.Expression, error)
}

// TranslateFunc renders one method call.
type TranslateFunc func(tc TranslationContext, args []any) (clause.Expression, error)

// MappingTranslator translates the methods present in the map.
type MappingTranslator map[string]TranslateFunc

func (m MappingTranslator) Translate(tc TranslationContext, method string, args []any) (clause.Expression, bool, error) {
	fn, ok := m[method]
	if !ok {
		return nil, false, nil
	}
	expr, err := fn(tc, args)
	if err != nil {
		return nil, true, fmt.Errorf("translate %s: %w", method, err)
	}
	return expr, true, nil
}

// TranslatorChain asks each translator in order; the first one that knows the method wins.
type TranslatorChain struct {
	name        string
	translators []MethodCallTranslator
}

// NewTranslatorChain returns a provider named name over translators.
func NewTranslatorChain(name string, translators ...MethodCallTranslator) *TranslatorChain {
	return &TranslatorChain{name: name, translators: translators}
}

func (c *TranslatorChain) Name() string { return c.name }

func (c *TranslatorChain) Translate(tc TranslationContext, method string, args ...any) (clause.Expression, error) {
	for _, t := range c.translators {
		expr, ok, err := t.Translate(tc, method, args)
		if err != nil {
			return nil, err
		}
		if ok {
			return expr, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
}

// StandardTranslator renders calls in portable SQL.
var StandardTranslator = MappingTranslator{
	MethodEqual: func(tc TranslationContext, args []any) (clause.Expression, error) {
		if err := Arity(args, 2); err != nil {
			return nil, err
		}
		if args[1] == nil {
			return clause.Expr{SQL: "? IS NULL", Vars: args[:1]}, nil
		}
		if tc.UseRelationalNulls {
			return clause.Expr{SQL: "? = ?", Vars: args}, nil
		}
		return clause.Expr{
			SQL:  "(? = ? OR (? IS NULL AND ? IS NULL))",
			Vars: []any{args[0], args[1], args[0], args[1]},
		}, nil
	},
	MethodNotEqual: func(tc TranslationContext, args []any) (clause.Expression, error) {
		if err := Arity(args, 2); err != nil {
			return nil, err
		}
		if args[1] == nil {
			return clause.Expr{SQL: "? IS NOT NULL", Vars: args[:1]}, nil
		}
		if tc.UseRelationalNulls {
			return clause.Expr{SQL: "? <> ?", Vars: args}, nil
		}
		return clause.Expr{
			SQL:  "(? <> ? OR (? IS NULL AND ? IS NOT NULL) OR (? IS NOT NULL AND ? IS NULL))",
			Vars: []any{args[0], args[1], args[0], args[1], args[0], args[1]},
		}, nil
	},
	MethodContains: func(_ TranslationContext, args []any) (clause.Expression, error) {
		if err := Arity(args, 2); err != nil {
			return nil, err
		}
		if s, ok := args[1].(string); ok {
			return likeExpr(args[0], "%"+EscapeLike(s)+"%"), nil
		}
		return clause.Expr{SQL: "POSITION(? IN ?) > 0", Vars: []any{args[1], args[0]}}, nil
	},
	MethodStartsWith: func(_ TranslationContext, args []any) (clause.Expression, error) {
		if err := Arity(args, 2); err != nil {
			return nil, err
		}
		s, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: StartsWith needs a string prefix", ErrInvalidArgument)
		}
		return likeExpr(args[0], EscapeLike(s)+"%"), nil
	},
	MethodEndsWith: func(_ TranslationContext, args []any) (clause.Expression, error) {
		if err := Arity(args, 2); err != nil {
			return nil, err
		}
		s, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: EndsWith needs a string suffix", ErrInvalidArgument)
		}
		return likeExpr(args[0], "%"+EscapeLike(s)), nil
	},
	MethodToLower:  Function("LOWER", 1),
	MethodToUpper:  Function("UPPER", 1),
	MethodTrim:     Function("TRIM", 1),
	MethodLength:   Function("CHAR_LENGTH", 1),
	MethodCoalesce: Function("COALESCE", -1),
	MethodNow: func(_ TranslationContext, args []any) (clause.Expression, error) {
		if err := Arity(args, 0); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "CURRENT_TIMESTAMP"}, nil
	},
}

// Function renders name(?, ...). arity < 0 accepts one or more arguments.
func Function(name string, arity int) TranslateFunc {
	return func(_ TranslationContext, args []any) (clause.Expression, error) {
		if arity >= 0 {
			if err := Arity(args, arity); err != nil {
				return nil, err
			}
		} else if len(args) == 0 {
			return nil, fmt.Errorf("%w: %s needs at least one argument", ErrInvalidArgument, name)
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
		return clause.Expr{SQL: name + "(" + marks + ")", Vars: args}, nil
	}
}

// Arity returns ErrInvalidArgument unless len(args) == n.
func Arity(args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d arguments, got %d", ErrInvalidArgument, n, len(args))
	}
	return nil
}

// EscapeLike escapes the LIKE wildcards in s using backslash.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// likeExpr renders column LIKE pattern; backslash is the default escape in PostgreSQL and MySQL.
func likeExpr(column any, pattern string) clause.Expression {
	return clause.Expr{SQL: "? LIKE ?", Vars: []any{column, pattern}}
}
