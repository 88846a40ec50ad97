// Package controller implements the business logic behind every dashboard
// page: it asks the access policy before touching the record store, forces
// the effective building and shift onto writes, and keeps the list mirror
// current.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/notify"
	"precisionpulse/policy"
	"precisionpulse/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mirror keeps the last good copy of each list.
type Mirror interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, v any) (bool, error)
}

// Notifier queues an injury report notification without blocking.
type Notifier interface {
	Notify(ev notify.Event)
}

// Item is one row as returned to a user, with what that user may do to it.
type Item[T any] struct {
	Record T             `json:"record"`
	Status string        `json:"status,omitempty"`
	Access policy.Access `json:"access"`
}

// Listing is the answer to a list request. Stale is set when the store
// failed and the rows come from the mirror.
type Listing[T any] struct {
	Items []Item[T] `json:"items"`
	Stale bool      `json:"stale"`
}

type derivedStatus interface {
	DerivedStatus() string
}

// crud holds the policy-checked operations every entity shares.
type crud[T models.Scoped] struct {
	entity policy.Entity
	table  *store.Table[T]
	policy *policy.Policy
	mirror Mirror
	logger *zap.Logger
}

func (c *crud[T]) item(user *models.User, rec T) Item[T] {
	it := Item[T]{Record: rec, Access: c.policy.Decide(user, c.entity, rec.AccessScope())}
	if d, ok := any(rec).(derivedStatus); ok {
		it.Status = d.DerivedStatus()
	}
	return it
}

func (c *crud[T]) list(ctx context.Context, user *models.User, q store.Query) (*Listing[T], error) {
	f := c.policy.ListFilter(user, c.entity)
	if f.None {
		return &Listing[T]{Items: []Item[T]{}}, nil
	}
	if f.Building != "" {
		q.Building = f.Building
	}
	if f.Shift != "" {
		q.Shift = f.Shift
	}

	key := mirrorKey(c.entity, q)
	rows, err := c.table.List(ctx, q)
	stale := false
	if err != nil {
		var cached []T
		ok, merr := c.mirror.Load(ctx, key, &cached)
		if merr != nil || !ok {
			return nil, fmt.Errorf("failed to load %s: %w", c.entity, err)
		}
		c.logger.Warn("serving mirrored list",
			zap.Error(err),
			zap.String("entity", string(c.entity)),
			zap.Int("rows", len(cached)),
		)
		rows, stale = cached, true
	} else if err := c.mirror.Save(ctx, key, rows); err != nil {
		c.logger.Warn("failed to refresh mirror", zap.Error(err), zap.String("key", key))
	}

	out := &Listing[T]{Items: make([]Item[T], 0, len(rows)), Stale: stale}
	for _, rec := range rows {
		it := c.item(user, rec)
		if it.Access.CanView {
			out.Items = append(out.Items, it)
		}
	}
	return out, nil
}

// load fetches one row. A row the user may not see reads as not found.
func (c *crud[T]) load(ctx context.Context, user *models.User, id uuid.UUID) (*T, policy.Access, error) {
	rec, err := c.table.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, policy.Access{}, err
		}
		return nil, policy.Access{}, fmt.Errorf("failed to load %s: %w", c.entity, err)
	}
	access := c.policy.Decide(user, c.entity, (*rec).AccessScope())
	if !access.CanView {
		return nil, access, e.ErrNotFound
	}
	return rec, access, nil
}

func (c *crud[T]) get(ctx context.Context, user *models.User, id uuid.UUID) (*Item[T], error) {
	rec, _, err := c.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	it := c.item(user, *rec)
	return &it, nil
}

func (c *crud[T]) loadForEdit(ctx context.Context, user *models.User, id uuid.UUID) (*T, error) {
	rec, access, err := c.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit {
		return nil, e.ErrForbidden
	}
	return rec, nil
}

func (c *crud[T]) insert(ctx context.Context, rec *T) error {
	if err := c.table.Insert(ctx, rec); err != nil {
		return fmt.Errorf("failed to save %s: %w", c.entity, err)
	}
	return nil
}

func (c *crud[T]) update(ctx context.Context, rec *T) error {
	if err := c.table.Update(ctx, rec); err != nil {
		if isNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to save %s: %w", c.entity, err)
	}
	return nil
}

func (c *crud[T]) delete(ctx context.Context, user *models.User, id uuid.UUID) (*T, error) {
	rec, access, err := c.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !access.CanDelete {
		return nil, e.ErrForbidden
	}
	if err := c.table.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete %s: %w", c.entity, err)
	}
	c.logger.Info("record deleted",
		zap.String("entity", string(c.entity)),
		zap.String("id", id.String()),
		zap.String("by", user.Email),
	)
	return rec, nil
}

func (c *crud[T]) requireCreate(user *models.User) error {
	if !c.policy.CanCreate(user, c.entity) {
		return e.ErrForbidden
	}
	return nil
}

func mirrorKey(entity policy.Entity, q store.Query) string {
	part := func(s string) string {
		if s == "" {
			return "all"
		}
		return s
	}
	return strings.Join([]string{
		string(entity),
		part(string(q.Building)),
		part(string(q.Shift)),
		part(q.WorkDate),
		part(q.Status),
	}, ":")
}

func isNotFound(err error) bool {
	return errors.Is(err, e.ErrNotFound)
}

const dateLayout = "2006-01-02"

// validateBuilding requires a known building code.
func validateBuilding(b models.Building) error {
	if b == "" {
		return e.Validation("building", "building is required")
	}
	if !b.Valid() {
		return e.Validation("building", "unknown building %q", b)
	}
	return nil
}

func validateShift(s models.Shift, required bool) error {
	if s == "" {
		if required {
			return e.Validation("shift", "shift is required")
		}
		return nil
	}
	if !s.Valid() {
		return e.Validation("shift", "unknown shift %q", s)
	}
	return nil
}

func validateDate(field, value string, required bool) error {
	if value == "" {
		if required {
			return e.Validation(field, "%s is required", strings.ReplaceAll(field, "_", " "))
		}
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return e.Validation(field, "must be a date in YYYY-MM-DD form")
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return e.Validation(field, "%s is required", strings.ReplaceAll(field, "_", " "))
	}
	return nil
}

func maxLen(field, value string, n int) error {
	if len(value) > n {
		return e.Validation(field, "must be at most %d characters", n)
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
