package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/arenafit/schedule-api/internal/dto"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type fakeWorkloadSrv struct {
	views     []dto.WorkloadView
	one       *dto.WorkloadView
	err       error
	lastAsOf  *time.Time
	lastID    string
	summaries int
}

func (f *fakeWorkloadSrv) Summary(_ context.Context, asOf *time.Time) ([]dto.WorkloadView, error) {
	f.lastAsOf = asOf
	f.summaries++
	return f.views, f.err
}

func (f *fakeWorkloadSrv) SummaryForTeacher(_ context.Context, teacherID string, asOf *time.Time) (*dto.WorkloadView, error) {
	f.lastID = teacherID
	f.lastAsOf = asOf
	return f.one, f.err
}

func TestWorkloadHandlerSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWorkloadSrv{views: []dto.WorkloadView{
		{TeacherID: "t1", TeacherName: "Ana", WorkedHours: 12.5, ContractedHours: 20, Deficit: 7.5},
	}}
	handler := NewWorkloadHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/workload", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, srv.lastAsOf)

	var envelope struct {
		Data []dto.WorkloadView `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, "Ana", envelope.Data[0].TeacherName)
}

func TestWorkloadHandlerSummaryPassesAsOf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWorkloadSrv{}
	handler := NewWorkloadHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/workload?asOf=2026-03-02T12:00:00Z", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, srv.lastAsOf) {
		assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), srv.lastAsOf.UTC())
	}
}

func TestWorkloadHandlerSummaryRejectsBadAsOf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWorkloadSrv{}
	handler := NewWorkloadHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/workload?asOf=yesterday", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.summaries)
}

func TestWorkloadHandlerForTeacherNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWorkloadSrv{err: appErrors.Clone(appErrors.ErrNotFound, "teacher not found")}
	handler := NewWorkloadHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/workload/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.ForTeacher(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ghost", srv.lastID)
}
