package model

import "fmt"

// Article belongs to an Author through AuthorID.
// AuthorID is zero when the article has no author yet; such an article
// cannot be persisted.
type Article struct {
	ID            int64
	AuthorID      int64
	Title         string
	CommentsCount int
	Published     bool
}

// ArticleAttrs holds the attributes NewArticle builds an Article from.
// Nil pointer fields take their declared defaults.
type ArticleAttrs struct {
	AuthorID      int64
	Title         string
	CommentsCount *int
	Published     *bool
}

// NewArticle builds an unsaved article from attrs; nil attributes stay zero.
func NewArticle(attrs ArticleAttrs) *Article {
	a := &Article{
		AuthorID: attrs.AuthorID,
		Title:    attrs.Title,
	}
	if attrs.CommentsCount != nil {
		a.CommentsCount = *attrs.CommentsCount
	}
	if attrs.Published != nil {
		a.Published = *attrs.Published
	}
	return a
}

// IsPublished reports whether the article is visible to readers.
func (a *Article) IsPublished() bool { return a.Published }

// Publish marks the article as published in memory only.
func (a *Article) Publish() { a.Published = true }

func (a Article) String() string {
	return fmt.Sprintf("Article(id=%d, author_id=%d, title=%q, comments_count=%d, published=%t)",
		a.ID, a.AuthorID, a.Title, a.CommentsCount, a.Published)
}
