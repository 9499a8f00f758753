package repository

import (
	"fmt"

	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
)

// Repositories groups the repositories of every registered entity.
type Repositories struct {
	Authors  *AuthorRepository
	Articles *ArticleRepository
}

// NewRepositories builds the repositories over db with the schemas held
// by reg. Returns an orm.ConfigurationError if an entity is missing from
// reg.
func NewRepositories(db orm.Querier, reg *orm.Registry) (*Repositories, error) {
	authors, err := orm.SchemaOf[model.Author](reg)
	if err != nil {
		return nil, fmt.Errorf("authors repository: %w", err)
	}
	articles, err := orm.SchemaOf[model.Article](reg)
	if err != nil {
		return nil, fmt.Errorf("articles repository: %w", err)
	}
	return &Repositories{
		Authors:  NewAuthorRepository(db, authors),
		Articles: NewArticleRepository(db, articles),
	}, nil
}
