package repository

import (
	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
	"github.com/mickamy/repokit/query"
)

// AuthorRepository reads and writes rows of the authors table.
type AuthorRepository struct {
	Repository[model.Author]
}

// NewAuthorRepository returns a repository over the authors table described by s.
func NewAuthorRepository(db orm.Querier, s *orm.Schema) *AuthorRepository {
	return &AuthorRepository{
		Repository: newRepository(func() *orm.Query[model.Author] { return query.Authors(db, s) }),
	}
}
