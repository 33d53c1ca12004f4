package dbcontext_test

import (
	"errors"
	"testing"

	"gorm.io/gorm/clause"

	"db-factory/internal/dbcontext"
)

func translate(t *testing.T, tp dbcontext.TranslatorProvider, tc dbcontext.TranslationContext, method string, args ...any) clause.Expr {
	t.Helper()
	expr, err := tp.Translate(tc, method, args...)
	if err != nil {
		t.Fatalf("%s: %v", method, err)
	}
	e, ok := expr.(clause.Expr)
	if !ok {
		t.Fatalf("%s: expected clause.Expr, got %T", method, expr)
	}
	return e
}

func TestStandardTranslator_Equal(t *testing.T) {
	tp := dbcontext.NewTranslatorChain("standard", dbcontext.StandardTranslator)
	col := clause.Column{Name: "name"}

	tests := []struct {
		name     string
		tc       dbcontext.TranslationContext
		args     []any
		wantSQL  string
		wantVars int
	}{
		{"null compensated", dbcontext.TranslationContext{}, []any{col, "x"}, "(? = ? OR (? IS NULL AND ? IS NULL))", 4},
		{"relational nulls", dbcontext.TranslationContext{UseRelationalNulls: true}, []any{col, "x"}, "? = ?", 2},
		{"nil operand", dbcontext.TranslationContext{}, []any{col, nil}, "? IS NULL", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := translate(t, tp, tt.tc, dbcontext.MethodEqual, tt.args...)
			if e.SQL != tt.wantSQL {
				t.Errorf("Expected %q, got %q", tt.wantSQL, e.SQL)
			}
			if len(e.Vars) != tt.wantVars {
				t.Errorf("Expected %d vars, got %d", tt.wantVars, len(e.Vars))
			}
		})
	}
}

func TestStandardTranslator_Like(t *testing.T) {
	tp := dbcontext.NewTranslatorChain("standard", dbcontext.StandardTranslator)
	col := clause.Column{Name: "sku"}
	tc := dbcontext.TranslationContext{}

	tests := []struct {
		method  string
		arg     string
		pattern string
	}{
		{dbcontext.MethodContains, "50%", `%50\%%`},
		{dbcontext.MethodStartsWith, "a_b", `a\_b%`},
		{dbcontext.MethodEndsWith, `c:\`, `%c:\\`},
	}

	for _, tt := range tests {
		e := translate(t, tp, tc, tt.method, col, tt.arg)
		if e.SQL != "? LIKE ?" {
			t.Errorf("%s: expected LIKE, got %q", tt.method, e.SQL)
		}
		if e.Vars[1] != tt.pattern {
			t.Errorf("%s: expected pattern %q, got %q", tt.method, tt.pattern, e.Vars[1])
		}
	}

	if _, err := tp.Translate(tc, dbcontext.MethodStartsWith, col, 42); !errors.Is(err, dbcontext.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for non-string prefix, got %v", err)
	}
}

func TestStandardTranslator_Functions(t *testing.T) {
	tp := dbcontext.NewTranslatorChain("standard", dbcontext.StandardTranslator)
	tc := dbcontext.TranslationContext{}
	col := clause.Column{Name: "c"}

	if e := translate(t, tp, tc, dbcontext.MethodToLower, col); e.SQL != "LOWER(?)" {
		t.Errorf("Unexpected ToLower: %q", e.SQL)
	}
	if e := translate(t, tp, tc, dbcontext.MethodCoalesce, col, "a", "b"); e.SQL != "COALESCE(?, ?, ?)" {
		t.Errorf("Unexpected Coalesce: %q", e.SQL)
	}
	if e := translate(t, tp, tc, dbcontext.MethodNow); e.SQL != "CURRENT_TIMESTAMP" {
		t.Errorf("Unexpected Now: %q", e.SQL)
	}

	if _, err := tp.Translate(tc, dbcontext.MethodToLower); !errors.Is(err, dbcontext.ErrInvalidArgument) {
		t.Errorf("Expected arity error, got %v", err)
	}
	if _, err := tp.Translate(tc, dbcontext.MethodCoalesce); !errors.Is(err, dbcontext.ErrInvalidArgument) {
		t.Errorf("Expected arity error for empty Coalesce, got %v", err)
	}
}

func TestTranslatorChain_Order(t *testing.T) {
	custom := dbcontext.MappingTranslator{
		dbcontext.MethodLength: dbcontext.Function("LEN", 1),
	}
	tp := dbcontext.NewTranslatorChain("custom", custom, dbcontext.StandardTranslator)
	tc := dbcontext.TranslationContext{}

	if e := translate(t, tp, tc, dbcontext.MethodLength, "x"); e.SQL != "LEN(?)" {
		t.Errorf("Expected first translator to win, got %q", e.SQL)
	}
	if e := translate(t, tp, tc, dbcontext.MethodToUpper, "x"); e.SQL != "UPPER(?)" {
		t.Errorf("Expected fallback translator, got %q", e.SQL)
	}

	_, err := tp.Translate(tc, "Soundex", "x")
	if !errors.Is(err, dbcontext.ErrUnsupportedMethod) {
		t.Errorf("Expected ErrUnsupportedMethod, got %v", err)
	}
	if tp.Name() != "custom" {
		t.Errorf("Expected name custom, got %s", tp.Name())
	}
}

func TestEscapeLike(t *testing.T) {
	got := dbcontext.EscapeLike(`100%_\`)
	if want := `100\%\_\\`; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if dbcontext.EscapeLike("plain") != "plain" {
		t.Error("Expected plain text unchanged")
	}
}
