package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/dto"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/models"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/query"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/sequence"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/store"
)

func strp(s string) *string { return &s }

func validInput(email string) *dto.UserInput {
	return &dto.UserInput{
		FirstName: strp("Jenny"),
		LastName:  strp("Test"),
		Email:     strp(email),
		Gender:    strp("female"),
		Phone:     strp("(555) 123-4567"),
	}
}

func newService(s *store.MemoryStore) *UserService {
	return NewUserService(s, sequence.NewGuardian(s), 0)
}

func TestCreate_NormalizesFields(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	in := validInput("  Jenny@Example.COM ")
	in.FirstName = strp(" <Jen> ")

	u, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("expected id 1, got %d", u.ID)
	}
	if u.Email != "jenny@example.com" || u.Gender != models.GenderFemale || u.FirstName != "Jen" {
		t.Fatalf("fields not normalized: %+v", u)
	}
}

func TestCreate_ValidationCollectsAllErrors(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	in := &dto.UserInput{
		FirstName: strp("J"),
		Email:     strp("not-an-email"),
		Gender:    strp("robot"),
		Phone:     strp("123-456"),
	}
	_, err := svc.Create(context.Background(), in)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{msgFirstName, msgLastName, msgEmail, msgGender, msgPhone}
	if len(verr.Errors) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), verr.Errors)
	}
	for i := range want {
		if verr.Errors[i] != want[i] {
			t.Fatalf("error %d: got %q, want %q", i, verr.Errors[i], want[i])
		}
	}
}

func TestCreate_PhoneRules(t *testing.T) {
	cases := []struct {
		phone string
		ok    bool
	}{
		{"5551234567", true},
		{"555 123 4567", true},
		{"(555) 123-4567", true},
		{"555-1234", false},
		{"+1 555 123 4567", false},
		{"555.123.4567", false},
	}
	for i, tc := range cases {
		svc := newService(store.NewMemoryStore())
		in := validInput(fmt.Sprintf("p%d@x.com", i))
		in.Phone = strp(tc.phone)
		_, err := svc.Create(context.Background(), in)
		if tc.ok && err != nil {
			t.Errorf("phone %q: unexpected error %v", tc.phone, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("phone %q: expected validation error", tc.phone)
		}
	}
}

func TestCreate_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	if _, err := svc.Create(context.Background(), validInput("dup@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), validInput("DUP@X.com")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreate_RepairsLaggingSequence(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newService(mem)
	for i := 1; i <= 4; i++ {
		if _, err := svc.Create(context.Background(), validInput(fmt.Sprintf("seed%d@x.com", i))); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	// ids 5..10 written out of band; the generator still points at 5
	for id := int64(5); id <= 10; id++ {
		if err := mem.Backfill(models.User{ID: id, FirstName: "Old", LastName: "Row", Email: fmt.Sprintf("old%d@x.com", id), Gender: models.GenderMale, Phone: "5550000000"}); err != nil {
			t.Fatalf("backfill %d: %v", id, err)
		}
	}

	u, err := svc.Create(context.Background(), validInput("fresh@x.com"))
	if err != nil {
		t.Fatalf("create after drift: %v", err)
	}
	if u.ID != 11 {
		t.Fatalf("expected id 11, got %d", u.ID)
	}
}

func TestCreate_ConcurrentRepairs(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newService(mem)
	for id := int64(1); id <= 10; id++ {
		if err := mem.Backfill(models.User{ID: id, Email: fmt.Sprintf("old%d@x.com", id), Gender: models.GenderOther}); err != nil {
			t.Fatalf("backfill %d: %v", id, err)
		}
	}

	const n = 2
	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.Create(context.Background(), validInput(fmt.Sprintf("racer%d@x.com", i)))
			errs[i] = err
			if u != nil {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if ids[0] <= 10 || ids[0] == ids[1] {
		t.Fatalf("expected distinct ids above 10, got %v", ids)
	}
}

func TestUpdate_EmptyBodyLeavesRecordUnchanged(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	created, err := svc.Create(context.Background(), validInput("same@x.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, &dto.UserInput{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if *updated != *created {
		t.Fatalf("record changed: before %+v after %+v", created, updated)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	created, _ := svc.Create(context.Background(), validInput("part@x.com"))

	updated, err := svc.Update(context.Background(), created.ID, &dto.UserInput{Gender: strp("other"), Email: strp("PART@y.com")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Gender != models.GenderOther || updated.Email != "part@y.com" {
		t.Fatalf("unexpected update %+v", updated)
	}
	if updated.FirstName != created.FirstName || updated.Phone != created.Phone {
		t.Fatalf("omitted fields changed: %+v", updated)
	}
}

func TestUpdate_Errors(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	a, _ := svc.Create(context.Background(), validInput("a@x.com"))
	if _, err := svc.Create(context.Background(), validInput("b@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(context.Background(), 999, &dto.UserInput{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Update(context.Background(), a.ID, &dto.UserInput{Email: strp("B@x.com")}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Update(context.Background(), a.ID, &dto.UserInput{Email: strp("A@X.COM")}); err != nil {
		t.Fatalf("re-submitting own email must succeed, got %v", err)
	}

	var verr *ValidationError
	if _, err := svc.Update(context.Background(), a.ID, &dto.UserInput{LastName: strp("")}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 1 || verr.Errors[0] != msgLastName {
		t.Fatalf("unexpected validation errors %v", verr.Errors)
	}
}

func TestDelete(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	u, _ := svc.Create(context.Background(), validInput("gone@x.com"))

	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	for i := 0; i < 12; i++ {
		if _, err := svc.Create(context.Background(), validInput(fmt.Sprintf("u%02d@x.com", i))); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := svc.List(context.Background(), query.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 12 || len(page.Users) != 5 || page.TotalPages != 3 {
		t.Fatalf("unexpected default page total=%d len=%d pages=%d", page.Total, len(page.Users), page.TotalPages)
	}

	page, err = svc.List(context.Background(), query.Params{Page: "3", Limit: "5"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Users) != 2 || page.Users[0].ID != 11 {
		t.Fatalf("unexpected last page %+v", page.Users)
	}

	if _, err := svc.List(context.Background(), query.Params{Limit: "0"}); !errors.Is(err, query.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestList_EmptyResultIsNotNil(t *testing.T) {
	svc := newService(store.NewMemoryStore())
	page, err := svc.List(context.Background(), query.Params{Search: "nobody"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Users == nil {
		t.Fatal("expected empty slice so the response encodes []")
	}
}
