package dialect

import (
	"context"
	"fmt"
	"strings"

	"db-factory/internal/dbcontext"
)

// baseProvider runs hook queries through the bound context, so the command timeout applies.
type baseProvider struct {
	ctx dbcontext.Context
}

func (p *baseProvider) Context() dbcontext.Context { return p.ctx }

func (p *baseProvider) scalar(ctx context.Context, dest any, query string, args ...any) error {
	tx, cancel := p.ctx.Session(ctx)
	defer cancel()
	return tx.Raw(query, args...).Row().Scan(dest)
}

func (p *baseProvider) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int64
	if err := p.scalar(ctx, &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *baseProvider) exec(ctx context.Context, query string, args ...any) error {
	tx, cancel := p.ctx.Session(ctx)
	defer cancel()
	return tx.Exec(query, args...).Error
}

func (p *baseProvider) list(ctx context.Context, query string, args ...any) ([]string, error) {
	tx, cancel := p.ctx.Session(ctx)
	defer cancel()

	rows, err := tx.Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// applyPaging appends LIMIT/OFFSET in PostgreSQL form.
func applyPaging(query string, skip, take int) string {
	switch {
	case take > 0 && skip > 0:
		return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, take, skip)
	case take > 0:
		return fmt.Sprintf("%s LIMIT %d", query, take)
	case skip > 0:
		return fmt.Sprintf("%s OFFSET %d", query, skip)
	default:
		return query
	}
}

func insertSQL(p DataProvider, table string, columns []string) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = p.EncloseIdentifier(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		p.EncloseIdentifier(table), strings.Join(cols, ", "), GeneratePlaceholders(len(columns), p.Placeholder))
}

// qualifyTable splits "schema.table"; schema is empty for unqualified names.
func qualifyTable(table string) (schema, name string) {
	parts := splitIdentifier(table)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}
