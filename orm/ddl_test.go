package orm_test

import (
	"testing"

	"github.com/mickamy/repokit/orm"
)

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect orm.Dialect
		want    string
	}{
		{
			name:    "sqlite",
			dialect: orm.SQLite,
			want: "CREATE TABLE IF NOT EXISTS \"articles\" (\n" +
				"\t\"id\" INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
				"\t\"author_id\" INTEGER NOT NULL,\n" +
				"\t\"title\" TEXT,\n" +
				"\t\"comments_count\" INTEGER NOT NULL DEFAULT 0,\n" +
				"\t\"published\" BOOLEAN NOT NULL DEFAULT 0,\n" +
				"\tFOREIGN KEY (\"author_id\") REFERENCES \"authors\" (\"id\")\n" +
				")",
		},
		{
			name:    "mysql",
			dialect: orm.MySQL,
			want: "CREATE TABLE IF NOT EXISTS `articles` (\n" +
				"\t`id` BIGINT AUTO_INCREMENT PRIMARY KEY,\n" +
				"\t`author_id` BIGINT NOT NULL,\n" +
				"\t`title` VARCHAR(255),\n" +
				"\t`comments_count` BIGINT NOT NULL DEFAULT 0,\n" +
				"\t`published` BOOLEAN NOT NULL DEFAULT FALSE,\n" +
				"\tFOREIGN KEY (`author_id`) REFERENCES `authors` (`id`)\n" +
				")",
		},
		{
			name:    "postgres",
			dialect: orm.PostgreSQL,
			want: "CREATE TABLE IF NOT EXISTS \"articles\" (\n" +
				"\t\"id\" BIGSERIAL PRIMARY KEY,\n" +
				"\t\"author_id\" BIGINT NOT NULL,\n" +
				"\t\"title\" TEXT,\n" +
				"\t\"comments_count\" BIGINT NOT NULL DEFAULT 0,\n" +
				"\t\"published\" BOOLEAN NOT NULL DEFAULT FALSE,\n" +
				"\tFOREIGN KEY (\"author_id\") REFERENCES \"authors\" (\"id\")\n" +
				")",
		},
	}

	schema := *testArticleSchema
	schema.ForeignKeys = []orm.ForeignKey{{Column: "author_id", RefTable: "authors", RefColumn: "id"}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := orm.CreateTableSQL(tt.dialect, &schema); got != tt.want {
				t.Errorf("CreateTableSQL =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestMigrateRecreateOrder(t *testing.T) {
	t.Parallel()

	reg, err := orm.NewRegistry(
		orm.Register[Writer](writerSchema()),
		orm.Register[Essay](essaySchema()),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tq := orm.NewTestQuerier(orm.SQLite)
	if err := orm.Migrate(t.Context(), tq, reg, true); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if len(tq.Queries) != 4 {
		t.Fatalf("queries = %d, want 4", len(tq.Queries))
	}
	want := []string{
		`DROP TABLE IF EXISTS "essays"`,
		`DROP TABLE IF EXISTS "writers"`,
	}
	for i, w := range want {
		if tq.Queries[i].SQL != w {
			t.Errorf("query %d = %q, want %q", i, tq.Queries[i].SQL, w)
		}
	}
	if got := tq.Queries[2].SQL; got[:len(`CREATE TABLE IF NOT EXISTS "writers"`)] != `CREATE TABLE IF NOT EXISTS "writers"` {
		t.Errorf("query 2 = %q, want writers created first", got)
	}
}
