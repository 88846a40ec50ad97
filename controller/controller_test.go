package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"precisionpulse/database"
	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/notify"
	"precisionpulse/policy"
	"precisionpulse/storage"
	"precisionpulse/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type memMirror struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemMirror() *memMirror {
	return &memMirror{data: map[string][]byte{}}
}

func (m *memMirror) Save(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memMirror) Load(_ context.Context, key string, v any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []notify.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.EventType, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Type
	}
	return out
}

type memFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *memFiles) Upload(_ context.Context, bucket, objectPath string, r io.Reader) (storage.Object, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[bucket+"/"+objectPath] = raw
	return storage.Object{Bucket: bucket, Path: objectPath, SizeBytes: int64(len(raw))}, nil
}

func (f *memFiles) Delete(_ context.Context, bucket, objectPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+objectPath)
	return nil
}

func (f *memFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *memFiles) SignedURL(bucket, objectPath string, ttl time.Duration) (string, error) {
	return "/files/" + bucket + "/" + objectPath + "?token=t", nil
}

type env struct {
	db       *gorm.DB
	store    *store.Store
	mirror   *memMirror
	notifier *recordingNotifier
	files    *memFiles
	logs     *observer.ObservedLogs
	svc      *Services
}

func setup(t *testing.T) *env {
	t.Helper()
	db, err := database.Open("sqlite::memory:", zap.NewNop())
	require.NoError(t, err)
	st := store.New(db)
	t.Cleanup(func() { _ = st.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	ev := &env{
		db:       db,
		store:    st,
		mirror:   newMemMirror(),
		notifier: &recordingNotifier{},
		files:    &memFiles{},
		logs:     logs,
	}
	ev.svc = NewServices(Deps{
		Store:    st,
		Policy:   policy.New(),
		Mirror:   ev.mirror,
		Files:    ev.files,
		Notifier: ev.notifier,
		URLTTL:   10 * time.Minute,
		Logger:   zap.New(core),
	})
	return ev
}

func user(role models.Role, building models.Building, shift models.Shift) *models.User {
	id := uuid.New()
	return &models.User{
		ID:       id,
		Email:    id.String()[:8] + "@pulse.test",
		FullName: string(role) + " " + id.String()[:4],
		Role:     role,
		Building: building,
		Shift:    shift,
	}
}

var (
	admin   = user(models.RoleSuperAdmin, "", "")
	manager = user(models.RoleBuildingManager, models.BuildingDC5, "")
	lead    = user(models.RoleLead, models.BuildingDC5, models.Shift1)
	hr      = user(models.RoleHR, "", "")
	worker  = user(models.RoleWorker, models.BuildingDC5, models.Shift1)
)

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	v, ok := e.AsValidation(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	assert.Equal(t, field, v.Field)
}

func TestMirrorKey(t *testing.T) {
	assert.Equal(t, "containers:DC5:all:all:all", mirrorKey(policy.Containers, store.Query{Building: models.BuildingDC5}))
	assert.Equal(t, "chat:DC1:2nd:2026-03-02:Open", mirrorKey(policy.Chat, store.Query{
		Building: models.BuildingDC1, Shift: models.Shift2, WorkDate: "2026-03-02", Status: "Open",
	}))
}

func TestListServesMirrorWhenStoreFails(t *testing.T) {
	ev := setup(t)
	ctx := context.Background()

	_, err := ev.svc.DamageReports.Create(ctx, manager, DamageReportInput{Description: "crushed carton"})
	require.NoError(t, err)

	fresh, err := ev.svc.DamageReports.List(ctx, manager, store.Query{})
	require.NoError(t, err)
	require.Len(t, fresh.Items, 1)
	assert.False(t, fresh.Stale)

	require.NoError(t, ev.store.Close())

	stale, err := ev.svc.DamageReports.List(ctx, manager, store.Query{})
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	require.Len(t, stale.Items, 1)
	assert.Equal(t, "crushed carton", stale.Items[0].Record.Description)
	assert.Equal(t, 1, ev.logs.FilterMessage("serving mirrored list").Len())
}

func TestListFailsWithoutMirror(t *testing.T) {
	ev := setup(t)
	require.NoError(t, ev.store.Close())

	_, err := ev.svc.Candidates.List(context.Background(), manager, store.Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load candidates")
}

func TestWorkerSeesNothing(t *testing.T) {
	ev := setup(t)
	ctx := context.Background()
	_, err := ev.svc.DamageReports.Create(ctx, manager, DamageReportInput{Description: "torn wrap"})
	require.NoError(t, err)

	listing, err := ev.svc.DamageReports.List(ctx, worker, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, listing.Items)

	_, err = ev.svc.DamageReports.Create(ctx, worker, DamageReportInput{Building: models.BuildingDC5, Description: "x"})
	assert.True(t, errors.Is(err, e.ErrForbidden))
}

func TestGetHidesOtherBuildings(t *testing.T) {
	ev := setup(t)
	ctx := context.Background()
	other := user(models.RoleBuildingManager, models.BuildingDC11, "")

	rec, err := ev.svc.DamageReports.Create(ctx, other, DamageReportInput{Description: "wet pallet"})
	require.NoError(t, err)

	_, err = ev.svc.DamageReports.Get(ctx, manager, rec.ID)
	assert.True(t, errors.Is(err, e.ErrNotFound))

	it, err := ev.svc.DamageReports.Get(ctx, hr, rec.ID)
	require.NoError(t, err)
	assert.True(t, it.Access.CanView)
	assert.False(t, it.Access.CanEdit)
}
