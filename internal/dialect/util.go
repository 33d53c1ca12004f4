package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed and a function that returns the placeholder for a given index.
// It returns a comma-separated string of the generated placeholders.
func GeneratePlaceholders(count int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(i)
	}
	return strings.Join(placeholders, ", ")
}

// applyPool sizes db from p. MinPoolSize has no database/sql counterpart and is only
// honored by native pgxpool configs.
func applyPool(db *sql.DB, p PoolSettings) {
	if p.MaxPoolSize > 0 {
		db.SetMaxOpenConns(p.MaxPoolSize)
	}
	if !p.Pooling {
		db.SetMaxIdleConns(0)
	} else if p.MaxPoolSize > 0 {
		db.SetMaxIdleConns(p.MaxPoolSize)
	}
	if p.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(p.MaxConnLifetime)
	}
	if p.MaxConnIdleTime > 0 {
		db.SetConnMaxIdleTime(p.MaxConnIdleTime)
	}
}

type keyValue struct {
	key   string
	value string
}

// parseKeywordValues splits a libpq keyword/value connection string.
// Values may be single-quoted; backslash escapes the next character.
func parseKeywordValues(s string) ([]keyValue, error) {
	var pairs []keyValue
	rs := []rune(s)
	i := 0
	skipSpace := func() {
		for i < len(rs) && unicode.IsSpace(rs[i]) {
			i++
		}
	}

	for {
		skipSpace()
		if i >= len(rs) {
			return pairs, nil
		}

		start := i
		for i < len(rs) && rs[i] != '=' && !unicode.IsSpace(rs[i]) {
			i++
		}
		key := string(rs[start:i])
		skipSpace()
		if i >= len(rs) || rs[i] != '=' {
			return nil, fmt.Errorf("missing \"=\" after %q", key)
		}
		if key == "" {
			return nil, errors.New("empty key")
		}
		i++ // '='
		skipSpace()

		var b strings.Builder
		if i < len(rs) && rs[i] == '\'' {
			i++
			closed := false
			for i < len(rs) {
				r := rs[i]
				if r == '\\' && i+1 < len(rs) {
					b.WriteRune(rs[i+1])
					i += 2
					continue
				}
				if r == '\'' {
					closed = true
					i++
					break
				}
				b.WriteRune(r)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted value for %q", key)
			}
		} else {
			for i < len(rs) && !unicode.IsSpace(rs[i]) {
				if rs[i] == '\\' && i+1 < len(rs) {
					b.WriteRune(rs[i+1])
					i += 2
					continue
				}
				b.WriteRune(rs[i])
				i++
			}
		}
		pairs = append(pairs, keyValue{key: key, value: b.String()})
	}
}

// hasBareSemicolon reports whether s has a ';' outside a libpq single-quoted value.
func hasBareSemicolon(s string) bool {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '\'':
			quoted = !quoted
		case ';':
			if !quoted {
				return true
			}
		}
	}
	return false
}

// parseSemicolonPairs splits an ADO-style "Key=Value;" string. Keys may contain spaces;
// A value starting with a double or single quote runs to the matching quote, doubled inside.
func parseSemicolonPairs(s string) ([]keyValue, error) {
	var (
		pairs []keyValue
		part  strings.Builder
		quote rune
	)
	rs := []rune(s)
	flush := func() error {
		raw := strings.TrimSpace(part.String())
		part.Reset()
		if raw == "" {
			return nil
		}
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok {
			return fmt.Errorf("missing \"=\" after %q", key)
		}
		if key == "" {
			return errors.New("empty key")
		}
		value = strings.TrimSpace(value)
		if n := len(value); n >= 2 && (value[0] == '"' || value[0] == '\'') && value[n-1] == value[0] {
			q := value[:1]
			value = strings.ReplaceAll(value[1:n-1], q+q, q)
		}
		pairs = append(pairs, keyValue{key: key, value: value})
		return nil
	}

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case quote != 0 && r == quote:
			if i+1 < len(rs) && rs[i+1] == quote {
				part.WriteRune(r)
				i++
			} else {
				quote = 0
			}
		case quote == 0 && (r == '"' || r == '\'') && atValueStart(part.String()):
			quote = r
		case quote == 0 && r == ';':
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		part.WriteRune(r)
	}
	if quote != 0 {
		return nil, errors.New("unterminated quoted value")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// atValueStart reports whether part holds "key=" and nothing but spaces after it.
func atValueStart(part string) bool {
	_, value, ok := strings.Cut(part, "=")
	return ok && strings.TrimSpace(value) == ""
}

// quoteKeywordValue quotes v for a libpq keyword/value string when needed.
func quoteKeywordValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\r\n'\\;") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func formatKeywordValues(pairs []keyValue) string {
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv.key+"="+quoteKeywordValue(kv.value))
	}
	return strings.Join(parts, " ")
}

// splitIdentifier splits a possibly schema-qualified name.
func splitIdentifier(ident string) []string {
	parts := strings.Split(strings.TrimSpace(ident), ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}
