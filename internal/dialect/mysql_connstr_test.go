package dialect_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"db-factory/internal/dbcontext"
	"db-factory/internal/dialect"
)

func TestNewMySQLConnectionString(t *testing.T) {
	cs, err := dialect.NewMySQLConnectionString(dialect.ConnectionParameters{
		Server: "db.local", Database: "shop", UserID: "app", Password: "pw",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cfg := cs.Config()
	if cfg.Net != "tcp" || cfg.Addr != "db.local:3306" {
		t.Errorf("Expected tcp db.local:3306, got %s %s", cfg.Net, cfg.Addr)
	}
	if cfg.DBName != "shop" || cfg.User != "app" || cfg.Passwd != "pw" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if !cfg.ParseTime {
		t.Error("Expected parseTime to be enabled")
	}
	if cs.Pool() != dialect.DefaultPoolSettings() {
		t.Errorf("Expected default pool settings, got %+v", cs.Pool())
	}
	if got := cs.String(); got != "app:pw@tcp(db.local:3306)/shop?parseTime=true" {
		t.Errorf("Unexpected DSN: %s", got)
	}
}

func TestNewMySQLConnectionString_KeepsPort(t *testing.T) {
	cs, err := dialect.NewMySQLConnectionString(dialect.ConnectionParameters{Server: "10.0.0.5:3307"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v, _ := cs.Get("port"); v != "3307" {
		t.Errorf("Expected port 3307, got %q", v)
	}
	if v, _ := cs.Get("server"); v != "10.0.0.5" {
		t.Errorf("Expected host 10.0.0.5, got %q", v)
	}
}

func TestNewMySQLConnectionString_EmptyServer(t *testing.T) {
	_, err := dialect.NewMySQLConnectionString(dialect.ConnectionParameters{Server: " "})
	if !errors.Is(err, dbcontext.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestParseMySQLConnectionString(t *testing.T) {
	cs, err := dialect.ParseMySQLConnectionString("app:pw@tcp(db.local:3307)/shop?timeout=5s&parseTime=true")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	checks := map[string]string{
		"user":     "app",
		"password": "pw",
		"host":     "db.local",
		"port":     "3307",
		"database": "shop",
		"timeout":  "5s",
	}
	for k, want := range checks {
		if got, _ := cs.Get(k); got != want {
			t.Errorf("%s: expected %q, got %q", k, want, got)
		}
	}
	if cs.Config().Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cs.Config().Timeout)
	}
}

func TestParseMySQLConnectionString_URL(t *testing.T) {
	cs, err := dialect.ParseMySQLConnectionString("mysql://app:pw@db.local/shop?timeout=2s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg := cs.Config()
	if cfg.Addr != "db.local:3306" || cfg.DBName != "shop" || cfg.User != "app" || cfg.Passwd != "pw" {
		t.Errorf("Unexpected config: addr=%s db=%s user=%s", cfg.Addr, cfg.DBName, cfg.User)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Expected 2s timeout, got %s", cfg.Timeout)
	}
}

func TestParseMySQLConnectionString_Invalid(t *testing.T) {
	for _, raw := range []string{
		"not a dsn",
		"app:pw@tcp(db:3306)/shop?timeout=soon",
		"mysql://%zz",
	} {
		if _, err := dialect.ParseMySQLConnectionString(raw); !errors.Is(err, dbcontext.ErrInvalidFormat) {
			t.Errorf("%q: expected ErrInvalidFormat, got %v", raw, err)
		}
	}
}

func TestMySQLConnectionString_SetParam(t *testing.T) {
	cs, err := dialect.NewMySQLConnectionString(dialect.ConnectionParameters{Server: "db", Database: "shop"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if err := cs.Set("readTimeout", "30s"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if cs.Config().ReadTimeout != 30*time.Second {
		t.Errorf("Expected driver field to be set, got %s", cs.Config().ReadTimeout)
	}
	if err := cs.Set("readTimeout", "later"); !errors.Is(err, dbcontext.ErrInvalidFormat) {
		t.Errorf("Expected ErrInvalidFormat, got %v", err)
	}
	if cs.Config().ReadTimeout != 30*time.Second {
		t.Error("Expected failed Set to leave the config unchanged")
	}

	if err := cs.Set("readTimeout", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cs.Config().ReadTimeout != 0 {
		t.Errorf("Expected readTimeout to be cleared, got %s", cs.Config().ReadTimeout)
	}

	if err := cs.Set("Port", "3310"); err != nil {
		t.Fatalf("Set port: %v", err)
	}
	if cs.Config().Addr != "db:3310" {
		t.Errorf("Expected db:3310, got %s", cs.Config().Addr)
	}
	if !strings.Contains(strings.Join(cs.Keys(), ","), "parseTime") {
		t.Errorf("Expected parseTime among keys, got %v", cs.Keys())
	}
}

func TestMySQLConnectionString_RoundTrip(t *testing.T) {
	faker := gofakeit.New(11)

	for i := 0; i < 50; i++ {
		p := dialect.ConnectionParameters{
			Server:   faker.DomainName(),
			Database: faker.Word(),
			UserID:   faker.Username(),
			Password: faker.Password(true, true, true, false, false, 16),
		}
		built, err := dialect.NewMySQLConnectionString(p)
		if err != nil {
			t.Fatalf("build: %v", err)
		}

		parsed, err := dialect.ParseMySQLConnectionString(built.String())
		if err != nil {
			t.Fatalf("parse %q: %v", built.Redacted(), err)
		}

		in, out := built.Config(), parsed.Config()
		if in.Addr != out.Addr || in.DBName != out.DBName || in.User != out.User || in.Passwd != out.Passwd {
			t.Errorf("Round trip mismatch: %s vs %s", built.Redacted(), parsed.Redacted())
		}
		if !out.ParseTime {
			t.Error("Expected parseTime to survive the round trip")
		}
	}
}

func TestMySQLConnectionString_Redacted(t *testing.T) {
	cs, err := dialect.NewMySQLConnectionString(dialect.ConnectionParameters{Server: "db", UserID: "app", Password: "hunter2"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(cs.Redacted(), "hunter2") || !strings.Contains(cs.Redacted(), "app:xxxxx@") {
		t.Errorf("Expected masked password: %s", cs.Redacted())
	}
	if v, _ := cs.Get("password"); v != "hunter2" {
		t.Error("Expected Redacted to leave the builder untouched")
	}
}
