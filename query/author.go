package query

import (
	"database/sql"

	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
)

// AuthorSchema describes the authors table. The table name is inferred
// from model.Author when registered.
func AuthorSchema() orm.Schema {
	return orm.Schema{
		PrimaryKey: "id",
		Columns: []orm.Column{
			{Name: "id", Type: orm.Integer, NotNull: true},
			{Name: "name", Type: orm.String, NotNull: true},
		},
	}
}

func scanAuthor(rows *sql.Rows) (model.Author, error) {
	cols, err := rows.Columns()
	if err != nil {
		return model.Author{}, err //nolint:wrapcheck // pass through
	}
	var v model.Author
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "name":
			dest[i] = &v.Name
		default:
			dest[i] = new(any)
		}
	}
	err = rows.Scan(dest...)
	return v, err
}

func authorColumnValuePairs(v *model.Author, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{"id", "name"}, []any{v.ID, v.Name}
	}
	return []string{"name"}, []any{v.Name}
}

func setAuthorPK(v *model.Author, id int64) {
	v.ID = id
}

// Authors returns a new Query for the authors table described by s.
func Authors(db orm.Querier, s *orm.Schema) *orm.Query[model.Author] {
	return orm.NewQuery[model.Author](db, s, scanAuthor, authorColumnValuePairs, setAuthorPK)
}
