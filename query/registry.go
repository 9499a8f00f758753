// Package query maps the model entities onto their tables.
package query

import (
	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
)

// NewRegistry registers every entity of the model package. Authors come
// before articles because articles reference them.
func NewRegistry() (*orm.Registry, error) {
	return orm.NewRegistry(
		orm.Register[model.Author](AuthorSchema()),
		orm.Register[model.Article](ArticleSchema()),
	)
}
