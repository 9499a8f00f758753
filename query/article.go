package query

import (
	"database/sql"

	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
)

// ArticleSchema describes the articles table. author_id references
// authors.id and has no default, so an article without an author cannot
// be created.
func ArticleSchema() orm.Schema {
	return orm.Schema{
		PrimaryKey: "id",
		Columns: []orm.Column{
			{Name: "id", Type: orm.Integer, NotNull: true},
			{Name: "author_id", Type: orm.Integer, NotNull: true},
			{Name: "title", Type: orm.String},
			{Name: "comments_count", Type: orm.Integer, NotNull: true, Default: 0},
			{Name: "published", Type: orm.Boolean, NotNull: true, Default: false},
		},
		ForeignKeys: []orm.ForeignKey{
			{Column: "author_id", RefTable: "authors", RefColumn: "id"},
		},
	}
}

func scanArticle(rows *sql.Rows) (model.Article, error) {
	cols, err := rows.Columns()
	if err != nil {
		return model.Article{}, err //nolint:wrapcheck // pass through
	}
	var v model.Article
	var title sql.NullString
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "author_id":
			dest[i] = &v.AuthorID
		case "title":
			dest[i] = &title
		case "comments_count":
			dest[i] = &v.CommentsCount
		case "published":
			dest[i] = &v.Published
		default:
			dest[i] = new(any)
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return v, err //nolint:wrapcheck // pass through
	}
	v.Title = title.String
	return v, nil
}

func articleColumnValuePairs(v *model.Article, includesPK bool) ([]string, []any) {
	var authorID any
	if v.AuthorID != 0 {
		authorID = v.AuthorID
	}
	cols := []string{"author_id", "title", "comments_count", "published"}
	vals := []any{authorID, v.Title, v.CommentsCount, v.Published}
	if includesPK {
		return append([]string{"id"}, cols...), append([]any{v.ID}, vals...)
	}
	return cols, vals
}

func setArticlePK(v *model.Article, id int64) {
	v.ID = id
}

// Articles returns a new Query for the articles table described by s.
func Articles(db orm.Querier, s *orm.Schema) *orm.Query[model.Article] {
	return orm.NewQuery[model.Article](db, s, scanArticle, articleColumnValuePairs, setArticlePK)
}
