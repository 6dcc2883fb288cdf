// Package query turns raw list parameters into a structured, store-agnostic
// request: a predicate tree, a single sort key and a page window.
package query

// Field names a filterable or sortable user column.
type Field string

const (
	FieldID        Field = "id"
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldEmail     Field = "email"
	FieldGender    Field = "gender"
	FieldPhone     Field = "phone"
)

// Predicate is a node in the filter algebra. Stores translate it into their
// own safe query mechanism; it is never rendered as SQL text.
type Predicate interface {
	predicate()
}

// MatchAll matches every record.
type MatchAll struct{}

// And matches when every child matches.
type And []Predicate

// Or matches when at least one child matches.
type Or []Predicate

// Equals matches an exact column value.
type Equals struct {
	Field Field
	Value string
}

// Contains is a case-insensitive substring match. Term is literal: wildcard
// characters in it carry no special meaning.
type Contains struct {
	Field Field
	Term  string
}

func (MatchAll) predicate() {}
func (And) predicate()      {}
func (Or) predicate()       {}
func (Equals) predicate()   {}
func (Contains) predicate() {}

// IsMatchAll reports whether p places no restriction on the record set.
func IsMatchAll(p Predicate) bool {
	switch v := p.(type) {
	case nil, MatchAll:
		return true
	case And:
		for _, child := range v {
			if !IsMatchAll(child) {
				return false
			}
		}
		return true
	}
	return false
}
