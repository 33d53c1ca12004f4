package dialect

import (
	"fmt"

	"gorm.io/gorm/clause"

	"db-factory/internal/dbcontext"
)

// NewPostgresTranslatorProvider returns the PostgreSQL method-call translators,
// falling back to the portable ones.
func NewPostgresTranslatorProvider() dbcontext.TranslatorProvider {
	return dbcontext.NewTranslatorChain(string(Postgres), postgresTranslator, dbcontext.StandardTranslator)
}

var postgresTranslator = dbcontext.MappingTranslator{
	dbcontext.MethodEqual: func(tc dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		if tc.UseRelationalNulls {
			return clause.Expr{SQL: "? = ?", Vars: args}, nil
		}
		return clause.Expr{SQL: "? IS NOT DISTINCT FROM ?", Vars: args}, nil
	},
	dbcontext.MethodNotEqual: func(tc dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		if tc.UseRelationalNulls {
			return clause.Expr{SQL: "? <> ?", Vars: args}, nil
		}
		return clause.Expr{SQL: "? IS DISTINCT FROM ?", Vars: args}, nil
	},
	dbcontext.MethodContains: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "strpos(?, ?) > 0", Vars: args}, nil
	},
	dbcontext.MethodILike: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "? ILIKE ?", Vars: args}, nil
	},
	dbcontext.MethodTrim:   dbcontext.Function("btrim", 1),
	dbcontext.MethodLength: dbcontext.Function("length", 1),
	dbcontext.MethodNow:    dbcontext.Function("now", 0),
	// DateDiff* take (start, end) and return end - start.
	dbcontext.MethodDateDiffDay: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "(?::date - ?::date)", Vars: []any{args[1], args[0]}}, nil
	},
	dbcontext.MethodDateDiffHour:   pgEpochDiff(3600),
	dbcontext.MethodDateDiffMinute: pgEpochDiff(60),
}

func pgEpochDiff(seconds int) dbcontext.TranslateFunc {
	sql := fmt.Sprintf("floor(extract(epoch from (? - ?)) / %d)::bigint", seconds)
	return func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: sql, Vars: []any{args[1], args[0]}}, nil
	}
}
