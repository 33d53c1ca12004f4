package dialect

import (
	"fmt"

	"gorm.io/gorm/clause"

	"db-factory/internal/dbcontext"
)

// NewSQLServerTranslatorProvider returns the SQL Server method-call translators,
// falling back to the portable ones.
func NewSQLServerTranslatorProvider() dbcontext.TranslatorProvider {
	return dbcontext.NewTranslatorChain(string(SQLServer), sqlserverTranslator, dbcontext.StandardTranslator)
}

var sqlserverTranslator = dbcontext.MappingTranslator{
	dbcontext.MethodEqual: func(tc dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		if tc.UseRelationalNulls {
			return clause.Expr{SQL: "? = ?", Vars: args}, nil
		}
		a, b := args[0], args[1]
		return clause.Expr{SQL: "(? = ? OR (? IS NULL AND ? IS NULL))", Vars: []any{a, b, a, b}}, nil
	},
	dbcontext.MethodNotEqual: func(tc dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		if tc.UseRelationalNulls {
			return clause.Expr{SQL: "? <> ?", Vars: args}, nil
		}
		a, b := args[0], args[1]
		return clause.Expr{
			SQL:  "(? <> ? OR (? IS NULL AND ? IS NOT NULL) OR (? IS NOT NULL AND ? IS NULL))",
			Vars: []any{a, b, a, b, a, b},
		}, nil
	},
	dbcontext.MethodContains: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "CHARINDEX(?, ?) > 0", Vars: []any{args[1], args[0]}}, nil
	},
	dbcontext.MethodStartsWith: sqlserverLike("StartsWith", func(s string) string { return s + "%" }),
	dbcontext.MethodEndsWith:   sqlserverLike("EndsWith", func(s string) string { return "%" + s }),
	dbcontext.MethodILike: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "LOWER(?) LIKE LOWER(?)", Vars: args}, nil
	},
	dbcontext.MethodTrim: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 1); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "LTRIM(RTRIM(?))", Vars: args}, nil
	},
	dbcontext.MethodLength:         dbcontext.Function("LEN", 1),
	dbcontext.MethodNow:            dbcontext.Function("SYSDATETIME", 0),
	dbcontext.MethodDateDiffDay:    sqlserverDateDiff("day"),
	dbcontext.MethodDateDiffHour:   sqlserverDateDiff("hour"),
	dbcontext.MethodDateDiffMinute: sqlserverDateDiff("minute"),
}

// sqlserverLike names the escape character; SQL Server LIKE has none by default.
func sqlserverLike(method string, pattern func(string) string) dbcontext.TranslateFunc {
	return func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		s, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs a string pattern", dbcontext.ErrInvalidArgument, method)
		}
		return clause.Expr{SQL: `? LIKE ? ESCAPE '\'`, Vars: []any{args[0], pattern(dbcontext.EscapeLike(s))}}, nil
	}
}

func sqlserverDateDiff(unit string) dbcontext.TranslateFunc {
	return func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "DATEDIFF(" + unit + ", ?, ?)", Vars: args}, nil
	}
}
