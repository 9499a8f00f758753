package model

import "fmt"

// Author writes articles. ID is zero until the author is persisted.
type Author struct {
	ID   int64
	Name string
}

// NewAuthor builds an unsaved author with the given name.
func NewAuthor(name string) *Author {
	return &Author{Name: name}
}

func (a Author) String() string {
	return fmt.Sprintf("Author(id=%d, name=%q)", a.ID, a.Name)
}
