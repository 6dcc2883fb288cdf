package query

import "testing"

func TestResolveSort(t *testing.T) {
	cases := []struct {
		sortBy, order string
		want          Sort
	}{
		{"", "", Sort{FieldID, Asc}},
		{"unknown_field", "", Sort{FieldID, Asc}},
		{"phone", "desc", Sort{FieldID, Desc}},
		{"first_name", "DESC", Sort{FieldFirstName, Desc}},
		{"last_name", "asc", Sort{FieldLastName, Asc}},
		{"email", "sideways", Sort{FieldEmail, Asc}},
		{"gender", "Desc", Sort{FieldGender, Desc}},
		{"FIRST_NAME", "", Sort{FieldID, Asc}},
	}
	for _, tc := range cases {
		if got := ResolveSort(tc.sortBy, tc.order); got != tc.want {
			t.Errorf("ResolveSort(%q, %q) = %+v, want %+v", tc.sortBy, tc.order, got, tc.want)
		}
	}
}

func TestResolveSort_UnknownMatchesDefault(t *testing.T) {
	if ResolveSort("unknown_field", "") != ResolveSort("", "") {
		t.Fatal("unknown sort field must resolve like no sort field")
	}
}
