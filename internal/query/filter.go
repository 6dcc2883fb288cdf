package query

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/models"
)

// SearchFields are OR-ed together for free-text search.
var SearchFields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldPhone}

var markupReplacer = strings.NewReplacer("<", "", ">", "")

// Sanitize trims s and strips angle brackets.
func Sanitize(s string) string {
	return markupReplacer.Replace(strings.TrimSpace(s))
}

// BuildFilter combines an optional gender filter and an optional search term.
//
// An unrecognized gender is ignored rather than rejected so a stale filter in
// the UI degrades to "all genders". Gender and search are always conjoined.
func BuildFilter(genderParam, searchParam string) Predicate {
	var parts And

	if genderParam != "" {
		if gender, ok := models.NormalizeGender(genderParam); ok {
			parts = append(parts, Equals{Field: FieldGender, Value: gender})
		}
	}

	if strings.TrimSpace(searchParam) != "" {
		term := Sanitize(searchParam)
		if term != "" {
			search := make(Or, 0, len(SearchFields))
			for _, f := range SearchFields {
				search = append(search, Contains{Field: f, Term: term})
			}
			parts = append(parts, search)
		}
	}

	switch len(parts) {
	case 0:
		return MatchAll{}
	case 1:
		return parts[0]
	}
	return parts
}
