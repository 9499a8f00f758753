package orm

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for s.
// The primary key becomes an auto-generated integer column.
func CreateTableSQL(d Dialect, s *Schema) string {
	defs := make([]string, 0, len(s.Columns)+len(s.ForeignKeys))
	for _, c := range s.Columns {
		if c.Name == s.PrimaryKey {
			defs = append(defs, d.AutoIncrementPK(c.Name))
			continue
		}
		def := d.QuoteIdent(c.Name) + " " + d.ColumnType(c.Type)
		if c.NotNull {
			def += " NOT NULL"
		}
		if c.Default != nil {
			def += " DEFAULT " + d.Literal(c.Default)
		}
		defs = append(defs, def)
	}
	for _, fk := range s.ForeignKeys {
		defs = append(defs, fmt.Sprintf(
			"FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.QuoteIdent(fk.Column), d.QuoteIdent(fk.RefTable), d.QuoteIdent(fk.RefColumn),
		))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", d.QuoteIdent(s.Table), strings.Join(defs, ",\n\t"))
}

// CreateTable creates the table described by s if it does not exist yet.
func CreateTable(ctx context.Context, db Querier, s *Schema) error {
	if _, err := db.ExecContext(ctx, CreateTableSQL(db.dialect(), s)); err != nil {
		return fmt.Errorf("create table %s: %w", s.Table, err)
	}
	return nil
}

// DropTable drops the table described by s if it exists.
func DropTable(ctx context.Context, db Querier, s *Schema) error {
	query := "DROP TABLE IF EXISTS " + db.dialect().QuoteIdent(s.Table)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("drop table %s: %w", s.Table, err)
	}
	return nil
}

// Migrate creates every table of r. With recreate set, existing tables
// are dropped first, referencing tables before the tables they reference.
func Migrate(ctx context.Context, db Querier, r *Registry, recreate bool) error {
	schemas := r.Schemas()
	if recreate {
		for _, s := range slices.Backward(schemas) {
			if err := DropTable(ctx, db, s); err != nil {
				return err
			}
		}
	}
	for _, s := range schemas {
		if err := CreateTable(ctx, db, s); err != nil {
			return err
		}
	}
	return nil
}
