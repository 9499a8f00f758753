package repository

import (
	"context"

	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
	"github.com/mickamy/repokit/query"
	"github.com/mickamy/repokit/scope"
)

// DefaultRecentLimit is the number of articles the most-recent queries
// return when the caller has no preference.
const DefaultRecentLimit = 8

// ArticleRepository adds the article listings to the CRUD operations.
type ArticleRepository struct {
	Repository[model.Article]
}

func NewArticleRepository(db orm.Querier, s *orm.Schema) *ArticleRepository {
	return &ArticleRepository{
		Repository: newRepository(func() *orm.Query[model.Article] { return query.Articles(db, s) }),
	}
}

// PublishedScope filters published articles.
var PublishedScope = scope.Where("published", true)

// ByAuthorQuery matches the articles written by author.
func (r *ArticleRepository) ByAuthorQuery(author model.Author) *orm.Query[model.Article] {
	return r.Query().Where("author_id", author.ID)
}

// ByAuthor returns the articles written by author, oldest first.
func (r *ArticleRepository) ByAuthor(ctx context.Context, author model.Author) ([]model.Article, error) {
	return r.ByAuthorQuery(author).All(ctx)
}

// MostRecentByAuthor returns up to limit articles of author, newest first.
func (r *ArticleRepository) MostRecentByAuthor(ctx context.Context, author model.Author, limit int) ([]model.Article, error) {
	return r.ByAuthorQuery(author).Desc("id").Limit(limit).All(ctx)
}

// MostRecentPublishedByAuthor returns up to limit published articles of
// author, newest first. Drafts are filtered out before the limit applies.
func (r *ArticleRepository) MostRecentPublishedByAuthor(ctx context.Context, author model.Author, limit int) ([]model.Article, error) {
	return r.ByAuthorQuery(author).Scopes(PublishedScope).Desc("id").Limit(limit).All(ctx)
}

func (r *ArticleRepository) PublishedQuery() *orm.Query[model.Article] {
	return r.Query().Scopes(PublishedScope)
}

func (r *ArticleRepository) Published(ctx context.Context) ([]model.Article, error) {
	return r.PublishedQuery().All(ctx)
}

// DraftsQuery matches every article PublishedQuery does not.
func (r *ArticleRepository) DraftsQuery() *orm.Query[model.Article] {
	return r.Query().Exclude(r.PublishedQuery())
}

func (r *ArticleRepository) Drafts(ctx context.Context) ([]model.Article, error) {
	return r.DraftsQuery().All(ctx)
}

// RankQuery orders published articles by comment count, most commented
// first. Ties keep id order.
func (r *ArticleRepository) RankQuery() *orm.Query[model.Article] {
	return r.PublishedQuery().Desc("comments_count")
}

func (r *ArticleRepository) Rank(ctx context.Context) ([]model.Article, error) {
	return r.RankQuery().All(ctx)
}

// BestArticleEver returns the most commented published article.
// Returns orm.ErrNotFound when nothing is published.
func (r *ArticleRepository) BestArticleEver(ctx context.Context) (model.Article, error) {
	return r.RankQuery().First(ctx)
}

// CommentsAverage returns the mean comment count over all articles,
// published or not. An empty table averages to 0.
func (r *ArticleRepository) CommentsAverage(ctx context.Context) (float64, error) {
	return r.Query().Average(ctx, "comments_count")
}
