package dialect_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm/clause"

	"db-factory/internal/dbcontext"
	"db-factory/internal/dialect"
)

type customer struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:120"`
	Email string `gorm:"size:200"`
}

func (customer) TableName() string { return "dbfactory_it_customers" }

// Set DBFACTORY_TEST_POSTGRES to a connection string to run against a live server.
func TestPostgresIntegration(t *testing.T) {
	connStr := os.Getenv("DBFACTORY_TEST_POSTGRES")
	if connStr == "" {
		t.Skipf("Skipping integration test: DBFACTORY_TEST_POSTGRES not set")
	}

	ctx := context.Background()
	timeout := 30 * time.Second
	f := &dialect.PostgresFactory{}
	c := openShop(t, f, connStr, &timeout)
	p := f.CreateDataProvider(c)

	version, err := p.ServerVersion(ctx)
	if err != nil {
		t.Fatalf("ServerVersion: %v", err)
	}
	t.Logf("server: %s", version)

	if err := c.DB().WithContext(ctx).AutoMigrate(&customer{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() { c.DB().Migrator().DropTable(&customer{}) })

	for _, check := range []struct {
		name string
		fn   func() (bool, error)
	}{
		{"table", func() (bool, error) { return p.HasTable(ctx, "dbfactory_it_customers") }},
		{"column", func() (bool, error) { return p.HasColumn(ctx, "dbfactory_it_customers", "email") }},
	} {
		ok, err := check.fn()
		if err != nil || !ok {
			t.Errorf("Expected %s to exist (err=%v)", check.name, err)
		}
	}

	faker := gofakeit.New(3)
	rows := make([]customer, 25)
	for i := range rows {
		rows[i] = customer{Name: faker.Name(), Email: faker.Email()}
	}
	if err := c.CreateBatch(ctx, &rows); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	tx, cancel := c.Session(ctx)
	defer cancel()
	var n int64
	if err := tx.Model(&customer{}).Count(&n).Error; err != nil || n != 25 {
		t.Errorf("Expected 25 rows, got %d (err=%v)", n, err)
	}

	eq, err := c.Call(dbcontext.MethodEqual, clause.Column{Name: "name"}, rows[0].Name)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	var found []customer
	if err := tx.Where(eq).Find(&found).Error; err != nil || len(found) == 0 {
		t.Errorf("Expected translated filter to match, got %d rows (err=%v)", len(found), err)
	}

	if err := p.TruncateTable(ctx, "dbfactory_it_customers"); err != nil {
		t.Fatalf("TruncateTable: %v", err)
	}
	if size, err := p.DatabaseSize(ctx); err != nil || size <= 0 {
		t.Errorf("Expected positive database size, got %d (err=%v)", size, err)
	}
	if _, err := p.TableNames(ctx); err != nil {
		t.Errorf("TableNames: %v", err)
	}
}
