package main

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/mickamy/repokit/model"
	"github.com/mickamy/repokit/orm"
	"github.com/mickamy/repokit/repository"
)

var articleQueries = []string{"published", "drafts", "rank", "best", "average", "recent", "recent-published"}

func newArticlesCommand() *cobra.Command {
	flags := connFlags()
	var (
		authorID int64
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "articles {published|drafts|rank|best|average|recent|recent-published}",
		Short: "Run one of the article queries",
		Long: `Run one of the article queries and print the result.

recent and recent-published list the newest articles of --author-id;
--limit defaults to 8 for them. For the other listings --limit caps the
result when set.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: articleQueries,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			articles := e.repos.Articles

			capped := func(q *orm.Query[model.Article]) *orm.Query[model.Article] {
				if cmd.Flags().Changed("limit") {
					return q.Limit(limit)
				}
				return q
			}

			var items []model.Article
			switch args[0] {
			case "published":
				items, err = capped(articles.PublishedQuery()).All(ctx)
			case "drafts":
				items, err = capped(articles.DraftsQuery()).All(ctx)
			case "rank":
				items, err = capped(articles.RankQuery()).All(ctx)
			case "best":
				best, berr := articles.BestArticleEver(ctx)
				if berr != nil {
					return berr //nolint:wrapcheck // pass through
				}
				fmt.Fprintln(w, best)
				return nil
			case "average":
				avg, aerr := articles.CommentsAverage(ctx)
				if aerr != nil {
					return aerr //nolint:wrapcheck // pass through
				}
				fmt.Fprintf(w, "%.1f\n", avg)
				return nil
			case "recent", "recent-published":
				if !cmd.Flags().Changed("author-id") {
					return fmt.Errorf("%s requires --author-id", args[0])
				}
				author, ferr := e.repos.Authors.Find(ctx, authorID)
				if ferr != nil {
					return fmt.Errorf("author %d: %w", authorID, ferr)
				}
				n := repository.DefaultRecentLimit
				if cmd.Flags().Changed("limit") {
					n = limit
				}
				if args[0] == "recent" {
					items, err = articles.MostRecentByAuthor(ctx, author, n)
				} else {
					items, err = articles.MostRecentPublishedByAuthor(ctx, author, n)
				}
			}
			if err != nil {
				return err //nolint:wrapcheck // pass through
			}
			for _, a := range items {
				fmt.Fprintln(w, a)
			}
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	cmd.Flags().Int64Var(&authorID, "author-id", 0, "Author whose articles recent and recent-published list")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of articles to print")
	return cmd
}
