package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"precisionpulse/controller"
	"precisionpulse/middleware"
	"precisionpulse/mirror"
	"precisionpulse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containerBody() map[string]any {
	return map[string]any{
		"building":         "DC11",
		"shift":            "2nd",
		"work_date":        "2026-03-02",
		"container_number": "MSKU1234567",
		"pieces_total":     12000,
		"skus_total":       40,
		"workers": []map[string]any{
			{"name": "Ana", "minutes_worked": 240, "percent_contribution": "60"},
			{"name": "Bo", "minutes_worked": 200, "percent_contribution": "40"},
		},
	}
}

func TestContainerRoutes(t *testing.T) {
	s := setup(t)
	manager := s.seedUser(t, models.RoleBuildingManager, models.BuildingDC5, "")
	other := s.seedUser(t, models.RoleBuildingManager, models.BuildingDC1, "")
	lead := s.seedUser(t, models.RoleLead, models.BuildingDC5, models.Shift2)

	rec := s.do(t, manager, http.MethodPost, "/api/containers", containerBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Container](t, rec)
	assert.Equal(t, models.BuildingDC5, created.Building)
	assert.Equal(t, "505.00", created.PayTotal.StringFixed(2))

	rec = s.do(t, lead, http.MethodPost, "/api/containers", containerBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, manager, http.MethodGet, "/api/containers?building=DC5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decode[controller.Listing[models.Container]](t, rec)
	require.Len(t, listing.Items, 1)
	assert.False(t, listing.Stale)
	assert.True(t, listing.Items[0].Access.CanEdit)

	path := "/api/containers/" + created.ID.String()
	rec = s.do(t, other, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := containerBody()
	body["pieces_total"] = 5000
	rec = s.do(t, manager, http.MethodPut, path, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "230.00", decode[models.Container](t, rec).PayTotal.StringFixed(2))

	rec = s.do(t, manager, http.MethodGet, "/api/containers/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", decode[errorBody](t, rec).Field)

	rec = s.do(t, manager, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, manager, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContainerValidationReportsField(t *testing.T) {
	s := setup(t)
	admin := s.seedUser(t, models.RoleSuperAdmin, "", "")

	body := containerBody()
	body["building"] = "DC99"
	rec := s.do(t, admin, http.MethodPost, "/api/containers", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "building", decode[errorBody](t, rec).Field)

	rec = s.do(t, admin, http.MethodGet, "/api/containers?shift=5th", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "shift", decode[errorBody](t, rec).Field)
}

func TestQuoteContainer(t *testing.T) {
	s := setup(t)
	lead := s.seedUser(t, models.RoleLead, models.BuildingDC5, models.Shift1)

	rec := s.do(t, lead, http.MethodPost, "/api/containers/quote", containerBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[controller.Quote](t, rec)
	assert.True(t, quote.Valid)
	assert.Equal(t, "505.00", quote.PayTotal.StringFixed(2))
	require.Len(t, quote.Workers, 2)
	assert.Equal(t, "303.00", quote.Workers[0].Payout.StringFixed(2))

	body := containerBody()
	body["pieces_total"] = -1
	rec = s.do(t, lead, http.MethodPost, "/api/containers/quote", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "pieces_total", decode[errorBody](t, rec).Field)
}

func (s *testServer) upload(t *testing.T, user *models.User, path, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	token, err := middleware.GenerateToken(user, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestInjuryReportWorkflow(t *testing.T) {
	s := setup(t)
	lead := s.seedUser(t, models.RoleLead, models.BuildingDC5, models.Shift3)
	hr := s.seedUser(t, models.RoleHR, "", "")

	rec := s.do(t, lead, http.MethodPost, "/api/injury-reports", map[string]any{
		"shift":         "3rd",
		"work_date":     "2026-03-02",
		"employee_name": "Ana Ruiz",
		"incident_at":   "2026-03-02T14:30:00Z",
		"location":      "Dock 4",
		"injury_type":   "Strain",
		"description":   "Lifted a carton over the weight limit",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	report := decode[models.InjuryReport](t, rec)
	assert.Equal(t, models.InjuryDraft, report.Status)
	base := "/api/injury-reports/" + report.ID.String()

	rec = s.upload(t, lead, base+"/files", "../photo 1.jpg", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, decode[models.InjuryFile](t, rec).Path, "..")

	rec = s.do(t, lead, http.MethodGet, base+"/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	links := decode[[]controller.FileLink](t, rec)
	require.Len(t, links, 1)
	require.True(t, strings.HasPrefix(links[0].URL, "/files/"))

	rec = s.do(t, nil, http.MethodGet, links[0].URL, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	tampered := links[0].URL[:strings.Index(links[0].URL, "?")] + "?token=forged"
	rec = s.do(t, nil, http.MethodGet, tampered, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, lead, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.InjurySubmitted, decode[models.InjuryReport](t, rec).Status)

	// submitted reports are locked for their author
	rec = s.do(t, lead, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, lead, http.MethodPost, base+"/close", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, hr, http.MethodPost, base+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := decode[models.InjuryReport](t, rec)
	assert.Equal(t, models.InjuryClosed, closed.Status)
	assert.Equal(t, hr.Email, closed.ClosedByEmail)
}

func TestUploadRequiresFile(t *testing.T) {
	s := setup(t)
	lead := s.seedUser(t, models.RoleLead, models.BuildingDC5, models.Shift3)
	rec := s.do(t, lead, http.MethodPost, "/api/injury-reports/"+lead.ID.String()+"/files", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file", decode[errorBody](t, rec).Field)
}

func TestChatRoutes(t *testing.T) {
	s := setup(t)
	lead := s.seedUser(t, models.RoleLead, models.BuildingDC5, models.Shift1)
	manager := s.seedUser(t, models.RoleBuildingManager, models.BuildingDC5, "")

	rec := s.do(t, lead, http.MethodPost, "/api/chat", map[string]string{"building": "DC1", "body": "  truck at door 3  "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	msg := decode[models.ChatMessage](t, rec)
	assert.Equal(t, models.BuildingDC5, msg.Building)
	assert.Equal(t, "truck at door 3", msg.Body)

	rec = s.do(t, lead, http.MethodPost, "/api/chat", map[string]string{"body": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "body", decode[errorBody](t, rec).Field)

	path := "/api/chat/" + msg.ID.String()
	rec = s.do(t, lead, http.MethodPost, path+"/pin", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, manager, http.MethodPost, path+"/pin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[models.ChatMessage](t, rec).Pinned)

	rec = s.do(t, manager, http.MethodGet, "/api/chat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[controller.Listing[models.ChatMessage]](t, rec).Items, 1)

	rec = s.do(t, lead, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCandidateStageRoute(t *testing.T) {
	s := setup(t)
	lead := s.seedUser(t, models.RoleLead, models.BuildingDC5, "")

	rec := s.do(t, lead, http.MethodPost, "/api/candidates", map[string]string{"name": "Cy Doe", "phone": "555-0100"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cand := decode[models.Candidate](t, rec)
	assert.Equal(t, models.StageApplied, cand.Stage)

	path := "/api/candidates/" + cand.ID.String() + "/stage"
	rec = s.do(t, lead, http.MethodPost, path, map[string]string{"stage": "Phone Screen"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StagePhoneScreen, decode[models.Candidate](t, rec).Stage)

	rec = s.do(t, lead, http.MethodPost, path, map[string]string{"stage": "Promoted"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "stage", decode[errorBody](t, rec).Field)
}

func TestExportContainers(t *testing.T) {
	s := setup(t)
	manager := s.seedUser(t, models.RoleBuildingManager, models.BuildingDC5, "")
	lead := s.seedUser(t, models.RoleLead, models.BuildingDC5, models.Shift2)

	rec := s.do(t, manager, http.MethodPost, "/api/containers", containerBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, manager, http.MethodGet, "/api/export/containers", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=container_payouts_")
	assert.Contains(t, rec.Body.String(), "MSKU1234567")

	rec = s.do(t, manager, http.MethodGet, "/api/export/containers?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rec = s.do(t, manager, http.MethodGet, "/api/export/containers?format=pdf", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "format", decode[errorBody](t, rec).Field)

	rec = s.do(t, lead, http.MethodGet, "/api/export/containers", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBackupRoundTrip(t *testing.T) {
	s := setup(t)
	admin := s.seedUser(t, models.RoleSuperAdmin, "", "")
	manager := s.seedUser(t, models.RoleBuildingManager, models.BuildingDC5, "")

	rec := s.do(t, manager, http.MethodPost, "/api/containers", containerBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	// listing fills the mirror
	rec = s.do(t, manager, http.MethodGet, "/api/containers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, manager, http.MethodGet, "/api/backup", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, admin, http.MethodGet, "/api/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "precision-pulse-backup-")
	snap := decode[mirror.Snapshot](t, rec)
	assert.Equal(t, mirror.SnapshotVersion, snap.Version)
	require.NotEmpty(t, snap.Data)

	s.redis.FlushAll()

	rec = s.do(t, admin, http.MethodPost, "/api/backup", snap)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "confirm", decode[errorBody](t, rec).Field)

	rec = s.do(t, admin, http.MethodPost, "/api/backup?confirm=true", snap)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, len(snap.Data), decode[map[string]int](t, rec)["restored"])
	assert.Len(t, s.redis.Keys(), len(snap.Data))
}
