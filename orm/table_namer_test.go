package orm_test

import (
	"testing"

	"github.com/mickamy/repokit/orm"
)

type BlogEntry struct{}

type valueNamer struct{}

func (valueNamer) TableName() string { return "custom_values" }

type ptrNamer struct{}

func (*ptrNamer) TableName() string { return "custom_ptrs" }

func TestTableNameFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resolve  func() string
		expected string
	}{
		{
			name:     "inferred when TableNamer not implemented",
			resolve:  orm.TableNameFor[BlogEntry],
			expected: "blog_entries",
		},
		{
			name:     "value receiver",
			resolve:  orm.TableNameFor[valueNamer],
			expected: "custom_values",
		},
		{
			name:     "pointer receiver",
			resolve:  orm.TableNameFor[ptrNamer],
			expected: "custom_ptrs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.resolve(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
