package query

import "strings"

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a single-column ordering.
type Sort struct {
	Field     Field
	Direction Direction
}

// IsDesc reports whether the ordering is descending.
func (s Sort) IsDesc() bool { return s.Direction == Desc }

var sortable = map[string]Field{
	string(FieldFirstName): FieldFirstName,
	string(FieldLastName):  FieldLastName,
	string(FieldEmail):     FieldEmail,
	string(FieldGender):    FieldGender,
}

// ResolveSort maps sortBy onto the allow-list, defaulting to id, and order
// onto asc/desc, defaulting to asc.
func ResolveSort(sortByParam, orderParam string) Sort {
	field, ok := sortable[sortByParam]
	if !ok {
		field = FieldID
	}

	dir := Asc
	if strings.EqualFold(orderParam, string(Desc)) {
		dir = Desc
	}
	return Sort{Field: field, Direction: dir}
}
