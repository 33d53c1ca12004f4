package dialect_test

import (
	"errors"
	"testing"

	"gorm.io/gorm/clause"

	"db-factory/internal/dbcontext"
	"db-factory/internal/dialect"
)

func TestDialectTranslators(t *testing.T) {
	col := clause.Column{Name: "c"}
	start, end := clause.Column{Name: "created_at"}, clause.Column{Name: "closed_at"}
	null := dbcontext.TranslationContext{}
	relational := dbcontext.TranslationContext{UseRelationalNulls: true}

	tests := []struct {
		provider dbcontext.TranslatorProvider
		tc       dbcontext.TranslationContext
		method   string
		args     []any
		want     string
	}{
		{dialect.NewPostgresTranslatorProvider(), null, dbcontext.MethodEqual, []any{col, 1}, "? IS NOT DISTINCT FROM ?"},
		{dialect.NewPostgresTranslatorProvider(), relational, dbcontext.MethodEqual, []any{col, 1}, "? = ?"},
		{dialect.NewPostgresTranslatorProvider(), null, dbcontext.MethodNotEqual, []any{col, 1}, "? IS DISTINCT FROM ?"},
		{dialect.NewPostgresTranslatorProvider(), null, dbcontext.MethodContains, []any{col, "x"}, "strpos(?, ?) > 0"},
		{dialect.NewPostgresTranslatorProvider(), null, dbcontext.MethodILike, []any{col, "%x%"}, "? ILIKE ?"},
		{dialect.NewPostgresTranslatorProvider(), null, dbcontext.MethodTrim, []any{col}, "btrim(?)"},
		{dialect.NewPostgresTranslatorProvider(), null, dbcontext.MethodDateDiffDay, []any{start, end}, "(?::date - ?::date)"},
		{dialect.NewPostgresTranslatorProvider(), null, dbcontext.MethodDateDiffHour, []any{start, end}, "floor(extract(epoch from (? - ?)) / 3600)::bigint"},
		{dialect.NewPostgresTranslatorProvider(), null, dbcontext.MethodToUpper, []any{col}, "UPPER(?)"},
		{dialect.NewMySQLTranslatorProvider(), null, dbcontext.MethodEqual, []any{col, 1}, "? <=> ?"},
		{dialect.NewMySQLTranslatorProvider(), null, dbcontext.MethodNotEqual, []any{col, 1}, "NOT (? <=> ?)"},
		{dialect.NewMySQLTranslatorProvider(), relational, dbcontext.MethodNotEqual, []any{col, 1}, "? <> ?"},
		{dialect.NewMySQLTranslatorProvider(), null, dbcontext.MethodContains, []any{col, "x"}, "LOCATE(?, ?) > 0"},
		{dialect.NewMySQLTranslatorProvider(), null, dbcontext.MethodDateDiffDay, []any{start, end}, "DATEDIFF(?, ?)"},
		{dialect.NewMySQLTranslatorProvider(), null, dbcontext.MethodDateDiffMinute, []any{start, end}, "TIMESTAMPDIFF(MINUTE, ?, ?)"},
		{dialect.NewMySQLTranslatorProvider(), null, dbcontext.MethodLength, []any{col}, "CHAR_LENGTH(?)"},
		{dialect.NewMySQLTranslatorProvider(), null, dbcontext.MethodNow, nil, "NOW()"},
		{dialect.NewSQLServerTranslatorProvider(), null, dbcontext.MethodEqual, []any{col, 1}, "(? = ? OR (? IS NULL AND ? IS NULL))"},
		{dialect.NewSQLServerTranslatorProvider(), relational, dbcontext.MethodEqual, []any{col, 1}, "? = ?"},
		{dialect.NewSQLServerTranslatorProvider(), relational, dbcontext.MethodNotEqual, []any{col, 1}, "? <> ?"},
		{dialect.NewSQLServerTranslatorProvider(), null, dbcontext.MethodContains, []any{col, "x"}, "CHARINDEX(?, ?) > 0"},
		{dialect.NewSQLServerTranslatorProvider(), null, dbcontext.MethodStartsWith, []any{col, "x"}, `? LIKE ? ESCAPE '\'`},
		{dialect.NewSQLServerTranslatorProvider(), null, dbcontext.MethodTrim, []any{col}, "LTRIM(RTRIM(?))"},
		{dialect.NewSQLServerTranslatorProvider(), null, dbcontext.MethodLength, []any{col}, "LEN(?)"},
		{dialect.NewSQLServerTranslatorProvider(), null, dbcontext.MethodNow, nil, "SYSDATETIME()"},
		{dialect.NewSQLServerTranslatorProvider(), null, dbcontext.MethodDateDiffHour, []any{start, end}, "DATEDIFF(hour, ?, ?)"},
		{dialect.NewSQLServerTranslatorProvider(), null, dbcontext.MethodToLower, []any{col}, "LOWER(?)"},
	}

	for _, tt := range tests {
		expr, err := tt.provider.Translate(tt.tc, tt.method, tt.args...)
		if err != nil {
			t.Errorf("%s %s: %v", tt.provider.Name(), tt.method, err)
			continue
		}
		if e := expr.(clause.Expr); e.SQL != tt.want {
			t.Errorf("%s %s: expected %q, got %q", tt.provider.Name(), tt.method, tt.want, e.SQL)
		}
	}
}

func TestDateDiffArgumentOrder(t *testing.T) {
	start, end := clause.Column{Name: "start"}, clause.Column{Name: "end"}

	expr, err := dialect.NewPostgresTranslatorProvider().Translate(dbcontext.TranslationContext{}, dbcontext.MethodDateDiffDay, start, end)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if vars := expr.(clause.Expr).Vars; vars[0] != end || vars[1] != start {
		t.Errorf("Expected end - start, got %v", vars)
	}

	expr, err = dialect.NewMySQLTranslatorProvider().Translate(dbcontext.TranslationContext{}, dbcontext.MethodDateDiffHour, start, end)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if vars := expr.(clause.Expr).Vars; vars[0] != start || vars[1] != end {
		t.Errorf("Expected TIMESTAMPDIFF(start, end), got %v", vars)
	}
}

func TestDialectTranslators_Unsupported(t *testing.T) {
	for _, tp := range []dbcontext.TranslatorProvider{
		dialect.NewPostgresTranslatorProvider(),
		dialect.NewMySQLTranslatorProvider(),
		dialect.NewSQLServerTranslatorProvider(),
	} {
		if _, err := tp.Translate(dbcontext.TranslationContext{}, "Soundex", "x"); !errors.Is(err, dbcontext.ErrUnsupportedMethod) {
			t.Errorf("%s: expected ErrUnsupportedMethod, got %v", tp.Name(), err)
		}
		if _, err := tp.Translate(dbcontext.TranslationContext{}, dbcontext.MethodILike, "x"); !errors.Is(err, dbcontext.ErrInvalidArgument) {
			t.Errorf("%s: expected arity error, got %v", tp.Name(), err)
		}
	}
}

func TestSQLServerTranslator_NullSafeAndEscape(t *testing.T) {
	tp := dialect.NewSQLServerTranslatorProvider()
	col := clause.Column{Name: "c"}

	expr, err := tp.Translate(dbcontext.TranslationContext{}, dbcontext.MethodNotEqual, col, 1)
	if err != nil {
		t.Fatalf("NotEqual: %v", err)
	}
	if got := len(expr.(clause.Expr).Vars); got != 6 {
		t.Errorf("Expected 6 bound values, got %d", got)
	}

	expr, err = tp.Translate(dbcontext.TranslationContext{}, dbcontext.MethodEndsWith, col, "50%")
	if err != nil {
		t.Fatalf("EndsWith: %v", err)
	}
	if got := expr.(clause.Expr).Vars[1]; got != `%50\%` {
		t.Errorf("Expected escaped pattern, got %v", got)
	}

	if _, err := tp.Translate(dbcontext.TranslationContext{}, dbcontext.MethodStartsWith, col, 5); !errors.Is(err, dbcontext.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}
