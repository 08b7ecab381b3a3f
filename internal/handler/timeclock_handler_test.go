package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/arenafit/schedule-api/internal/models"
	"github.com/arenafit/schedule-api/internal/service"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type fakeTimeclockSrv struct {
	checkIn  *service.CheckInResult
	checkOut *models.WorkLog
	history  []models.WorkLog
	err      error
	lastID   string
}

func (f *fakeTimeclockSrv) CheckIn(_ context.Context, teacherID string) (*service.CheckInResult, error) {
	f.lastID = teacherID
	return f.checkIn, f.err
}

func (f *fakeTimeclockSrv) CheckOut(_ context.Context, teacherID string) (*models.WorkLog, error) {
	f.lastID = teacherID
	return f.checkOut, f.err
}

func (f *fakeTimeclockSrv) RecordManual(_ context.Context, teacherID string, _ service.ManualLogRequest) (*service.CheckInResult, error) {
	f.lastID = teacherID
	return f.checkIn, f.err
}

func (f *fakeTimeclockSrv) History(_ context.Context, teacherID string) ([]models.WorkLog, error) {
	f.lastID = teacherID
	return f.history, f.err
}

func TestTimeclockHandlerCheckIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTimeclockSrv{checkIn: &service.CheckInResult{WorkLog: &models.WorkLog{ID: "w1", TeacherID: "t1"}}}
	handler := NewTimeclockHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/teachers/t1/check-in", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.CheckIn(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "t1", srv.lastID)
}

func TestTimeclockHandlerDoubleCheckInConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTimeclockSrv{err: appErrors.Clone(appErrors.ErrConflict, "teacher already checked in")}
	handler := NewTimeclockHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/teachers/t1/check-in", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.CheckIn(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTimeclockHandlerCheckOut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTimeclockSrv{checkOut: &models.WorkLog{ID: "w1", TeacherID: "t1"}}
	handler := NewTimeclockHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/teachers/t1/check-out", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.CheckOut(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", srv.lastID)
}
