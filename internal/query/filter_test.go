package query

import (
	"reflect"
	"testing"
)

func TestBuildFilter_NoParams(t *testing.T) {
	if _, ok := BuildFilter("", "").(MatchAll); !ok {
		t.Fatal("expected MatchAll when no filter is supplied")
	}
	if _, ok := BuildFilter("", "   ").(MatchAll); !ok {
		t.Fatal("expected blank search to be ignored")
	}
}

func TestBuildFilter_Gender(t *testing.T) {
	got := BuildFilter("female", "")
	want := Equals{Field: FieldGender, Value: "FEMALE"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestBuildFilter_UnknownGenderIgnored(t *testing.T) {
	if _, ok := BuildFilter("robot", "").(MatchAll); !ok {
		t.Fatal("expected unrecognized gender to be treated as no filter")
	}
}

func TestBuildFilter_SearchSanitized(t *testing.T) {
	got := BuildFilter("", "  <b>ann</b> ")
	or, ok := got.(Or)
	if !ok {
		t.Fatalf("expected Or predicate, got %#v", got)
	}
	if len(or) != len(SearchFields) {
		t.Fatalf("expected %d search clauses, got %d", len(SearchFields), len(or))
	}
	for i, f := range SearchFields {
		c, ok := or[i].(Contains)
		if !ok || c.Field != f || c.Term != "bann/b" {
			t.Fatalf("clause %d: got %#v", i, or[i])
		}
	}
}

func TestBuildFilter_OnlyMarkupSearchIgnored(t *testing.T) {
	if _, ok := BuildFilter("", "<>").(MatchAll); !ok {
		t.Fatal("expected search consisting only of markup to be ignored")
	}
}

func TestBuildFilter_GenderAndSearchConjoined(t *testing.T) {
	got := BuildFilter("MALE", "smith")
	and, ok := got.(And)
	if !ok || len(and) != 2 {
		t.Fatalf("expected two-part And, got %#v", got)
	}
	if eq, ok := and[0].(Equals); !ok || eq.Value != "MALE" {
		t.Fatalf("expected gender equality first, got %#v", and[0])
	}
	if _, ok := and[1].(Or); !ok {
		t.Fatalf("expected search disjunction second, got %#v", and[1])
	}
}

func TestIsMatchAll(t *testing.T) {
	cases := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"nil", nil, true},
		{"match all", MatchAll{}, true},
		{"empty and", And{}, true},
		{"equals", Equals{Field: FieldGender, Value: "MALE"}, false},
		{"and with equals", And{MatchAll{}, Equals{Field: FieldGender, Value: "MALE"}}, false},
	}
	for _, tc := range cases {
		if got := IsMatchAll(tc.p); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("  <script>x</script> "); got != "scriptx/script" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}
