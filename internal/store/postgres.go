package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/models"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/query"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/sequence"
)

const (
	usersTable          = "users"
	identityColumn      = "id"
	fallbackSequence    = "users_id_seq"
	primaryKeyIndex     = "users_pkey"
	emailUniqueIndex    = "idx_users_email"
	uniqueViolationCode = "23505"
)

const (
	maxIDSQL           = `SELECT COALESCE(MAX(id), 0) FROM users`
	serialSequenceSQL  = `SELECT pg_get_serial_sequence(?, ?)`
	advanceSequenceSQL = `SELECT setval(CAST(? AS regclass), GREATEST(nextval(CAST(? AS regclass)), ?), false)`
)

// PostgresStore is the GORM-backed record store.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, u *models.User) error {
	u.ID = 0
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return classify(err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, changes Changes) (*models.User, error) {
	if changes.IsEmpty() {
		return s.FindByID(ctx, id)
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes.Columns())
	if result.Error != nil {
		return nil, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, q query.ListQuery) ([]models.User, int64, error) {
	filter, err := filterScope(q.Filter)
	if err != nil {
		return nil, 0, err
	}

	var users []models.User
	err = s.db.WithContext(ctx).Model(&models.User{}).
		Scopes(filter, orderScope(q.Sort)).
		Limit(q.Page.Limit).
		Offset(q.Page.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("scan users: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	if err := s.db.WithContext(ctx).Raw(maxIDSQL).Scan(&maxID).Error; err != nil {
		return 0, err
	}
	return maxID, nil
}

// AdvanceSequence draws one value to learn the generator position and sets
// the next value to the larger of that and next.
func (s *PostgresStore) AdvanceSequence(ctx context.Context, next int64) (int64, error) {
	name := s.sequenceName(ctx)

	var got int64
	err := s.db.WithContext(ctx).Raw(advanceSequenceSQL, name, name, next).Scan(&got).Error
	if err != nil && name != fallbackSequence {
		slog.WarnContext(ctx, "sequence advance failed, retrying with explicit sequence name", "sequence", name, "error", err)
		err = s.db.WithContext(ctx).Raw(advanceSequenceSQL, fallbackSequence, fallbackSequence, next).Scan(&got).Error
	}
	if err != nil {
		return 0, err
	}
	return got, nil
}

func (s *PostgresStore) sequenceName(ctx context.Context) string {
	var name sql.NullString
	err := s.db.WithContext(ctx).Raw(serialSequenceSQL, usersTable, identityColumn).Scan(&name).Error
	if err != nil || !name.Valid || name.String == "" {
		if err != nil {
			slog.WarnContext(ctx, "could not resolve identity sequence", "error", err)
		}
		return fallbackSequence
	}
	return name.String
}

func (s *PostgresStore) CountByGender(ctx context.Context) ([]analytics.GenderCount, error) {
	var rows []analytics.GenderCount
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("gender, COUNT(*) AS count").
		Group("gender").
		Scan(&rows).Error
	return rows, err
}

func (s *PostgresStore) CreationTimes(ctx context.Context) ([]analytics.CreationStamp, error) {
	var rows []struct {
		ID        int64
		CreatedAt *string
	}
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("id, CAST(created_at AS TEXT) AS created_at").
		Order("created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]analytics.CreationStamp, len(rows))
	for i, r := range rows {
		out[i].ID = r.ID
		if r.CreatedAt != nil {
			out[i].CreatedAt = *r.CreatedAt
		}
	}
	return out, nil
}

func (s *PostgresStore) Emails(ctx context.Context) ([]string, error) {
	var emails []string
	err := s.db.WithContext(ctx).Model(&models.User{}).Pluck("email", &emails).Error
	return emails, err
}

// classify maps driver errors onto the store's sentinel errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		switch {
		case pgErr.ConstraintName == primaryKeyIndex || strings.Contains(pgErr.Detail, "(id)"):
			return fmt.Errorf("%w: %s", sequence.ErrIdentityConflict, pgErr.Detail)
		case pgErr.ConstraintName == emailUniqueIndex || strings.Contains(pgErr.Detail, "(email)"):
			return ErrDuplicateEmail
		}
	}
	return err
}

var columns = map[query.Field]string{
	query.FieldID:        "id",
	query.FieldFirstName: "first_name",
	query.FieldLastName:  "last_name",
	query.FieldEmail:     "email",
	query.FieldGender:    "gender",
	query.FieldPhone:     "phone",
}

func column(f query.Field) (clause.Column, error) {
	name, ok := columns[f]
	if !ok {
		return clause.Column{}, fmt.Errorf("unknown field %q", f)
	}
	return clause.Column{Name: name}, nil
}

func filterScope(p query.Predicate) (func(*gorm.DB) *gorm.DB, error) {
	if query.IsMatchAll(p) {
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	}
	expr, err := expression(p)
	if err != nil {
		return nil, err
	}
	return func(db *gorm.DB) *gorm.DB { return db.Where(expr) }, nil
}

func orderScope(s query.Sort) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col, err := column(s.Field)
		if err != nil {
			col = clause.Column{Name: "id"}
		}
		db = db.Order(clause.OrderByColumn{Column: col, Desc: s.IsDesc()})
		if col.Name != "id" {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
		}
		return db
	}
}

// expression translates a predicate into GORM clauses. Values always travel
// as bind parameters.
func expression(p query.Predicate) (clause.Expression, error) {
	switch v := p.(type) {
	case nil, query.MatchAll:
		return clause.Expr{SQL: "TRUE"}, nil
	case query.And:
		return combine(v, clause.And)
	case query.Or:
		if len(v) == 0 {
			return clause.Expr{SQL: "FALSE"}, nil
		}
		return combine(v, clause.Or)
	case query.Equals:
		col, err := column(v.Field)
		if err != nil {
			return nil, err
		}
		return clause.Eq{Column: col, Value: v.Value}, nil
	case query.Contains:
		col, err := column(v.Field)
		if err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "? ILIKE ?", Vars: []interface{}{col, "%" + escapeLike(v.Term) + "%"}}, nil
	}
	return nil, fmt.Errorf("unsupported predicate %T", p)
}

func combine(children []query.Predicate, join func(...clause.Expression) clause.Expression) (clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(children))
	for _, child := range children {
		e, err := expression(child)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	if len(exprs) == 0 {
		return clause.Expr{SQL: "TRUE"}, nil
	}
	return join(exprs...), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
