package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
	"github.com/mickamy/repokit/repository"
)

func newDemoCommand() *cobra.Command {
	flags := connFlags()

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Recreate the tables, seed sample articles and print every query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			if err := orm.Migrate(cmd.Context(), e.db, e.reg, true); err != nil {
				return err //nolint:wrapcheck // pass through
			}
			author, err := seed(cmd.Context(), e.repos)
			if err != nil {
				return err
			}
			return printQueries(cmd.Context(), cmd.OutOrStdout(), e.repos.Articles, author)
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func intp(n int) *int { return &n }

func boolp(b bool) *bool { return &b }

// seed stores one author with three published articles and one draft.
func seed(ctx context.Context, repos *repository.Repositories) (model.Author, error) {
	author := model.NewAuthor("Luca")
	if err := repos.Authors.Create(ctx, author); err != nil {
		return model.Author{}, fmt.Errorf("create author: %w", err)
	}

	articles := []*model.Article{
		model.NewArticle(model.ArticleAttrs{AuthorID: author.ID, Title: "Announcing Lotus", CommentsCount: intp(123), Published: boolp(true)}),
		model.NewArticle(model.ArticleAttrs{AuthorID: author.ID, Title: "Introducing Lotus::Router", CommentsCount: intp(63), Published: boolp(true)}),
		model.NewArticle(model.ArticleAttrs{AuthorID: author.ID, Title: "Introducing Lotus::Controller", CommentsCount: intp(82), Published: boolp(true)}),
		model.NewArticle(model.ArticleAttrs{AuthorID: author.ID, Title: "Introducing Lotus::Model"}),
	}
	for _, a := range articles {
		if err := repos.Articles.Create(ctx, a); err != nil {
			return model.Author{}, fmt.Errorf("create article %q: %w", a.Title, err)
		}
	}
	return *author, nil
}

func printQueries(ctx context.Context, w io.Writer, articles *repository.ArticleRepository, author model.Author) error {
	first, err := articles.First(ctx)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	last, err := articles.Last(ctx)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	fmt.Fprintln(w, "first:", first)
	fmt.Fprintln(w, "last:", last)

	lists := []struct {
		title string
		load  func() ([]model.Article, error)
	}{
		{"drafts", func() ([]model.Article, error) { return articles.Drafts(ctx) }},
		{"rank", func() ([]model.Article, error) { return articles.Rank(ctx) }},
		{"most recent by author", func() ([]model.Article, error) {
			return articles.MostRecentByAuthor(ctx, author, repository.DefaultRecentLimit)
		}},
		{"most recent published by author", func() ([]model.Article, error) {
			return articles.MostRecentPublishedByAuthor(ctx, author, repository.DefaultRecentLimit)
		}},
	}
	for _, l := range lists {
		items, err := l.load()
		if err != nil {
			return fmt.Errorf("%s: %w", l.title, err)
		}
		printArticles(w, l.title, items)
	}

	best, err := articles.BestArticleEver(ctx)
	switch {
	case errors.Is(err, orm.ErrNotFound):
		fmt.Fprintln(w, "best article ever: none")
	case err != nil:
		return err //nolint:wrapcheck // pass through
	default:
		fmt.Fprintln(w, "best article ever:", best)
	}

	avg, err := articles.CommentsAverage(ctx)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	fmt.Fprintf(w, "comments average: %.1f\n", avg)
	return nil
}

func printArticles(w io.Writer, title string, items []model.Article) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(items))
	for _, a := range items {
		fmt.Fprintf(w, "  %s\n", a)
	}
}
