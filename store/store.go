// Package store is the record store: one gorm-backed table per entity with
// the list/get/insert/update/delete operations the services need.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "precisionpulse/errors"
	"precisionpulse/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Query narrows List. Zero fields are not applied.
type Query struct {
	Building models.Building
	Shift    models.Shift
	WorkDate string
	Status   string
	Limit    int
}

// Table is the generic repository over one model type. T must be a gorm
// model with a uuid primary key column named id.
type Table[T any] struct {
	db *gorm.DB
}

func NewTable[T any](db *gorm.DB) *Table[T] {
	return &Table[T]{db: db}
}

// List returns matching rows, newest first.
func (t *Table[T]) List(ctx context.Context, q Query) ([]T, error) {
	tx := t.db.WithContext(ctx).Model(new(T))
	if q.Building != "" {
		tx = tx.Where("building = ?", q.Building)
	}
	if q.Shift != "" {
		tx = tx.Where("shift = ?", q.Shift)
	}
	if q.WorkDate != "" {
		tx = tx.Where("work_date = ?", q.WorkDate)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	rows := []T{}
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// Where runs an arbitrary condition, newest first.
func (t *Table[T]) Where(ctx context.Context, cond string, args ...any) ([]T, error) {
	rows := []T{}
	err := t.db.WithContext(ctx).Where(cond, args...).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (t *Table[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var rec T
	if err := t.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (t *Table[T]) Insert(ctx context.Context, rec *T) error {
	return translate(t.db.WithContext(ctx).Create(rec).Error)
}

// Update writes every column of rec except id and created_at, zero values
// included.
func (t *Table[T]) Update(ctx context.Context, rec *T) error {
	result := t.db.WithContext(ctx).Model(rec).Select("*").Omit("id", "created_at").Updates(rec)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// Patch updates only the named columns of one row.
func (t *Table[T]) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	result := t.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (t *Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	result := t.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeleteWhere removes every row matching cond and reports how many went.
func (t *Table[T]) DeleteWhere(ctx context.Context, cond string, args ...any) (int64, error) {
	result := t.db.WithContext(ctx).Where(cond, args...).Delete(new(T))
	return result.RowsAffected, translate(result.Error)
}

// Exists reports whether any row matches q.
func (t *Table[T]) Exists(ctx context.Context, q Query) (bool, error) {
	q.Limit = 1
	rows, err := t.List(ctx, q)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Users adds lookups by login email to the user table.
type Users struct {
	*Table[models.User]
}

func (u *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).First(&user, "lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (u *Users) All(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := u.db.WithContext(ctx).Order("email").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// Store groups every table behind one connection.
type Store struct {
	db *gorm.DB

	Users         *Users
	Containers    *Table[models.Container]
	Workforce     *Table[models.WorkforcePerson]
	Candidates    *Table[models.Candidate]
	InjuryReports *Table[models.InjuryReport]
	InjuryFiles   *Table[models.InjuryFile]
	Checklists    *Table[models.StartupChecklist]
	Terminations  *Table[models.TerminationRecord]
	DamageReports *Table[models.DamageReport]
	Chat          *Table[models.ChatMessage]
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         &Users{NewTable[models.User](db)},
		Containers:    NewTable[models.Container](db),
		Workforce:     NewTable[models.WorkforcePerson](db),
		Candidates:    NewTable[models.Candidate](db),
		InjuryReports: NewTable[models.InjuryReport](db),
		InjuryFiles:   NewTable[models.InjuryFile](db),
		Checklists:    NewTable[models.StartupChecklist](db),
		Terminations:  NewTable[models.TerminationRecord](db),
		DamageReports: NewTable[models.DamageReport](db),
		Chat:          NewTable[models.ChatMessage](db),
	}
}

// WithTransaction runs fn against a Store bound to one transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", e.ErrDuplicate, err)
	}
	return err
}
