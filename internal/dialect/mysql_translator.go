package dialect

import (
	"gorm.io/gorm/clause"

	"db-factory/internal/dbcontext"
)

// NewMySQLTranslatorProvider returns the MySQL method-call translators,
// falling back to the portable ones.
func NewMySQLTranslatorProvider() dbcontext.TranslatorProvider {
	return dbcontext.NewTranslatorChain(string(MySQL), mysqlTranslator, dbcontext.StandardTranslator)
}

var mysqlTranslator = dbcontext.MappingTranslator{
	dbcontext.MethodEqual: func(tc dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		if tc.UseRelationalNulls {
			return clause.Expr{SQL: "? = ?", Vars: args}, nil
		}
		return clause.Expr{SQL: "? <=> ?", Vars: args}, nil
	},
	dbcontext.MethodNotEqual: func(tc dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		if tc.UseRelationalNulls {
			return clause.Expr{SQL: "? <> ?", Vars: args}, nil
		}
		return clause.Expr{SQL: "NOT (? <=> ?)", Vars: args}, nil
	},
	dbcontext.MethodContains: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "LOCATE(?, ?) > 0", Vars: []any{args[1], args[0]}}, nil
	},
	dbcontext.MethodILike: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "LOWER(?) LIKE LOWER(?)", Vars: args}, nil
	},
	dbcontext.MethodNow: dbcontext.Function("NOW", 0),
	dbcontext.MethodDateDiffDay: func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "DATEDIFF(?, ?)", Vars: []any{args[1], args[0]}}, nil
	},
	dbcontext.MethodDateDiffHour:   mysqlTimestampDiff("HOUR"),
	dbcontext.MethodDateDiffMinute: mysqlTimestampDiff("MINUTE"),
}

func mysqlTimestampDiff(unit string) dbcontext.TranslateFunc {
	return func(_ dbcontext.TranslationContext, args []any) (clause.Expression, error) {
		if err := dbcontext.Arity(args, 2); err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "TIMESTAMPDIFF(" + unit + ", ?, ?)", Vars: args}, nil
	}
}
