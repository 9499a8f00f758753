package repository_test

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"

	"github.com/mickamy/repokit/config"
	"github.com/mickamy/repokit/internal/database"
	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
	"github.com/mickamy/repokit/query"
	"github.com/mickamy/repokit/repository"
)

// newRepositories opens a private in-memory database with both tables
// created, behind a pool of a few connections.
func newRepositories(c *qt.C) *repository.Repositories {
	c.Helper()

	cfg := &config.Config{
		Env: config.EnvDevelopment,
		Database: config.DatabaseConfig{
			URI:          "sqlite://:memory:",
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			PingTimeout:  time.Second,
		},
		Log: config.LogConfig{Level: "info"},
	}
	db, err := database.Open(c.Context(), cfg, zerolog.Nop())
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = db.Close() })

	reg, err := query.NewRegistry()
	c.Assert(err, qt.IsNil)
	c.Assert(orm.Migrate(c.Context(), db, reg, false), qt.IsNil)

	repos, err := repository.NewRepositories(db, reg)
	c.Assert(err, qt.IsNil)
	return repos
}

func createAuthor(c *qt.C, repos *repository.Repositories, name string) model.Author {
	c.Helper()

	a := model.NewAuthor(name)
	c.Assert(repos.Authors.Create(c.Context(), a), qt.IsNil)
	return *a
}

func createArticle(c *qt.C, repos *repository.Repositories, a model.Article) model.Article {
	c.Helper()

	c.Assert(repos.Articles.Create(c.Context(), &a), qt.IsNil)
	return a
}

func ids(articles []model.Article) []int64 {
	out := make([]int64, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	author := createAuthor(c, repos, "Luca")
	c.Assert(author.ID, qt.Not(qt.Equals), int64(0))

	var prev int64
	for i := range 5 {
		a := createArticle(c, repos, model.Article{AuthorID: author.ID, Title: "t", CommentsCount: i})
		c.Assert(a.ID > prev, qt.IsTrue, qt.Commentf("id %d after %d", a.ID, prev))
		prev = a.ID
	}

	// Deleted ids are not handed out again.
	c.Assert(repos.Articles.Delete(c.Context(), prev), qt.IsNil)
	a := createArticle(c, repos, model.Article{AuthorID: author.ID})
	c.Assert(a.ID > prev, qt.IsTrue)
}

func TestCreateStoresDefaults(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	author := createAuthor(c, repos, "Luca")

	a := model.NewArticle(model.ArticleAttrs{AuthorID: author.ID, Title: "Introducing Lotus::Model"})
	c.Assert(repos.Articles.Create(c.Context(), a), qt.IsNil)

	got, err := repos.Articles.Find(c.Context(), a.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, *a)
	c.Assert(got.CommentsCount, qt.Equals, 0)
	c.Assert(got.IsPublished(), qt.IsFalse)
}

func TestCreateWithoutAuthorFails(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)

	a := &model.Article{Title: "orphan"}
	err := repos.Articles.Create(c.Context(), a)
	c.Assert(err, qt.ErrorIs, orm.ErrPersistence)

	var pe *orm.PersistenceError
	c.Assert(err, qt.ErrorAs, &pe)
	c.Assert(pe.Reason, qt.Equals, orm.ReasonMissingAttribute)
	c.Assert(pe.Column, qt.Equals, "author_id")
	c.Assert(a.ID, qt.Equals, int64(0))

	count, err := repos.Articles.Count(c.Context())
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, int64(0))
}

func TestCreateWithUnknownAuthorFails(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)

	err := repos.Articles.Create(c.Context(), &model.Article{AuthorID: 42, Title: "ghost"})
	c.Assert(err, qt.ErrorIs, orm.ErrPersistence)

	var pe *orm.PersistenceError
	c.Assert(err, qt.ErrorAs, &pe)
	c.Assert(pe.Reason, qt.Equals, orm.ReasonForeignKey)
	c.Assert(pe.Unwrap(), qt.IsNotNil)
}

func TestFirstLastOnEmptyTable(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)

	_, err := repos.Articles.First(c.Context())
	c.Assert(err, qt.ErrorIs, orm.ErrNotFound)
	_, err = repos.Articles.Last(c.Context())
	c.Assert(err, qt.ErrorIs, orm.ErrNotFound)
	_, err = repos.Articles.BestArticleEver(c.Context())
	c.Assert(err, qt.ErrorIs, orm.ErrNotFound)
	_, err = repos.Authors.Find(c.Context(), 1)
	c.Assert(err, qt.ErrorIs, orm.ErrNotFound)
}

func TestCommentsAverageOfEmptyTable(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)

	avg, err := repos.Articles.CommentsAverage(c.Context())
	c.Assert(err, qt.IsNil)
	c.Assert(avg, qt.Equals, 0.0)
}

func TestPublishRequiresUpdate(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	author := createAuthor(c, repos, "Luca")
	a := createArticle(c, repos, model.Article{AuthorID: author.ID, Title: "draft"})

	a.Publish()
	published, err := repos.Articles.Published(c.Context())
	c.Assert(err, qt.IsNil)
	c.Assert(published, qt.HasLen, 0)

	c.Assert(repos.Articles.Update(c.Context(), &a), qt.IsNil)
	published, err = repos.Articles.Published(c.Context())
	c.Assert(err, qt.IsNil)
	c.Assert(ids(published), qt.DeepEquals, []int64{a.ID})
}

func TestUpdateMissingRow(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	author := createAuthor(c, repos, "Luca")

	err := repos.Articles.Update(c.Context(), &model.Article{ID: 99, AuthorID: author.ID})
	c.Assert(err, qt.ErrorIs, orm.ErrNotFound)
}

func TestDraftsAndPublishedPartitionAll(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	author := createAuthor(c, repos, "Luca")
	for i := range 7 {
		createArticle(c, repos, model.Article{AuthorID: author.ID, CommentsCount: i, Published: i%3 == 0})
	}

	all, err := repos.Articles.All(c.Context())
	c.Assert(err, qt.IsNil)
	published, err := repos.Articles.Published(c.Context())
	c.Assert(err, qt.IsNil)
	drafts, err := repos.Articles.Drafts(c.Context())
	c.Assert(err, qt.IsNil)

	seen := make(map[int64]int)
	for _, a := range published {
		c.Assert(a.Published, qt.IsTrue)
		seen[a.ID]++
	}
	for _, a := range drafts {
		c.Assert(a.Published, qt.IsFalse)
		seen[a.ID]++
	}
	c.Assert(seen, qt.HasLen, len(all))
	for _, a := range all {
		c.Assert(seen[a.ID], qt.Equals, 1, qt.Commentf("article %d", a.ID))
	}
}

func TestRankBreaksTiesByID(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	author := createAuthor(c, repos, "Luca")

	a1 := createArticle(c, repos, model.Article{AuthorID: author.ID, CommentsCount: 10, Published: true})
	a2 := createArticle(c, repos, model.Article{AuthorID: author.ID, CommentsCount: 30, Published: true})
	a3 := createArticle(c, repos, model.Article{AuthorID: author.ID, CommentsCount: 10, Published: true})
	createArticle(c, repos, model.Article{AuthorID: author.ID, CommentsCount: 50})

	rank, err := repos.Articles.Rank(c.Context())
	c.Assert(err, qt.IsNil)
	c.Assert(ids(rank), qt.DeepEquals, []int64{a2.ID, a1.ID, a3.ID})

	best, err := repos.Articles.BestArticleEver(c.Context())
	c.Assert(err, qt.IsNil)
	c.Assert(best, qt.DeepEquals, rank[0])
}

func TestMostRecentPublishedFiltersBeforeLimit(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	luca := createAuthor(c, repos, "Luca")
	other := createAuthor(c, repos, "Anna")

	var want []int64
	for i := range 6 {
		a := createArticle(c, repos, model.Article{AuthorID: luca.ID, Published: i < 3})
		if i < 3 {
			want = append([]int64{a.ID}, want...)
		}
	}
	createArticle(c, repos, model.Article{AuthorID: other.ID, Published: true})

	// The three newest articles are drafts; they must not use up the limit.
	got, err := repos.Articles.MostRecentPublishedByAuthor(c.Context(), luca, 3)
	c.Assert(err, qt.IsNil)
	c.Assert(ids(got), qt.DeepEquals, want)
	for _, a := range got {
		c.Assert(a.AuthorID, qt.Equals, luca.ID)
		c.Assert(a.Published, qt.IsTrue)
	}

	got, err = repos.Articles.MostRecentPublishedByAuthor(c.Context(), luca, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(ids(got), qt.DeepEquals, want[:2])
}

func TestMostRecentRejectsNonPositiveLimit(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	author := createAuthor(c, repos, "Luca")

	_, err := repos.Articles.MostRecentByAuthor(c.Context(), author, 0)
	c.Assert(err, qt.ErrorIs, orm.ErrInvalidArgument)
}

func TestEachIsRestartable(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	createAuthor(c, repos, "Luca")
	createAuthor(c, repos, "Anna")

	for range 2 {
		var names []string
		for a, err := range repos.Authors.Each(c.Context()) {
			c.Assert(err, qt.IsNil)
			names = append(names, a.Name)
		}
		c.Assert(names, qt.DeepEquals, []string{"Luca", "Anna"})
	}
}

func TestEachStopsEarly(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	createAuthor(c, repos, "Luca")
	createAuthor(c, repos, "Anna")

	for a, err := range repos.Authors.Each(c.Context()) {
		c.Assert(err, qt.IsNil)
		c.Assert(a.Name, qt.Equals, "Luca")
		break
	}

	// Breaking out closed the rows.
	count, err := repos.Authors.Count(c.Context())
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, int64(2))
}

func TestQueriesInsideEach(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)
	luca := createAuthor(c, repos, "Luca")
	anna := createAuthor(c, repos, "Anna")
	createArticle(c, repos, model.Article{AuthorID: luca.ID, Title: "one", CommentsCount: 10})
	createArticle(c, repos, model.Article{AuthorID: anna.ID, Title: "two", CommentsCount: 20})

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	var names []string
	for a, err := range repos.Articles.Each(ctx) {
		c.Assert(err, qt.IsNil)
		author, err := repos.Authors.Find(ctx, a.AuthorID)
		c.Assert(err, qt.IsNil)
		names = append(names, author.Name)

		avg, err := repos.Articles.CommentsAverage(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(avg, qt.Equals, 15.0)
	}
	c.Assert(names, qt.DeepEquals, []string{"Luca", "Anna"})
}

func TestUnknownColumnFailsBeforeStorage(t *testing.T) {
	c := qt.New(t)
	repos := newRepositories(c)

	q := repos.Articles.Query().Where("rating", 5)
	c.Assert(q.Err(), qt.ErrorIs, orm.ErrSchema)
	_, err := q.All(c.Context())
	c.Assert(err, qt.ErrorIs, orm.ErrSchema)
}

func TestNewRepositoriesRequiresRegisteredEntities(t *testing.T) {
	c := qt.New(t)

	reg, err := orm.NewRegistry(orm.Register[model.Author](query.AuthorSchema()))
	c.Assert(err, qt.IsNil)

	_, err = repository.NewRepositories(orm.New(nil, orm.SQLite), reg)
	c.Assert(err, qt.ErrorIs, orm.ErrConfiguration)
}
