package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/storage"
	"amtrak-price-tracker/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	mu        sync.Mutex
	triggered int
	intervals []int
}

func (f *fakeScheduler) Trigger() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered++
}

func (f *fakeScheduler) SetInterval(hours int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intervals = append(f.intervals, hours)
	return true
}

type memSettings struct {
	s models.Settings
}

func (m *memSettings) Get(context.Context) (models.Settings, error) {
	return m.s, nil
}

func (m *memSettings) Save(_ context.Context, p models.SettingsPatch) (models.Settings, error) {
	p.Apply(&m.s)
	return m.s, nil
}

type testAPI struct {
	router    *gin.Engine
	trips     *storage.MemoryTripStore
	settings  *memSettings
	scheduler *fakeScheduler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a := &testAPI{
		trips:     storage.NewMemoryTripStore(),
		settings:  &memSettings{s: models.DefaultSettings()},
		scheduler: &fakeScheduler{},
	}
	srv := NewServer(a.trips, a.settings, a.scheduler, utils.NewNopLogger())
	srv.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	a.router = NewRouter(srv)
	return a
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := newTestAPI(t).do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateListDeleteTrip(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/trips", `{"origin":"nyp","destination":"was","travelDate":"2026-03-15","trainNumber":"#171","pricePaid":89}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "NYP", created.Origin)
	assert.Equal(t, "171", created.TrainNumber)
	assert.Nil(t, created.CurrentPrice)

	w = a.do(http.MethodGet, "/trips", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	w = a.do(http.MethodDelete, "/trips/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodDelete, "/trips/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTripRejectsInvalid(t *testing.T) {
	a := newTestAPI(t)

	for _, body := range []string{
		`{"origin":"NY","destination":"WAS","travelDate":"2026-03-15","pricePaid":89}`,
		`{"origin":"NYP","destination":"NYP","travelDate":"2026-03-15","pricePaid":89}`,
		`{"origin":"NYP","destination":"WAS","travelDate":"03/15/2026","pricePaid":89}`,
		`{"origin":"NYP","destination":"WAS","travelDate":"2026-03-15","pricePaid":-1}`,
		`not json`,
	} {
		w := a.do(http.MethodPost, "/trips", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestPatchSettingsRearmsScheduler(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPatch, "/settings", `{"checkInterval":2,"emailEnabled":true,"emailAddress":"me@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var st models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 2, st.CheckInterval)
	assert.True(t, st.EmailEnabled)
	assert.True(t, st.NotificationsEnabled, "untouched fields keep their value")
	assert.Equal(t, []int{2}, a.scheduler.intervals)

	w = a.do(http.MethodPatch, "/settings", `{"checkInterval":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"checkInterval":2`)
}

func TestCheckIsAsync(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(http.MethodPost, "/check", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, a.scheduler.triggered)
}

func TestSummary(t *testing.T) {
	a := newTestAPI(t)
	paid := 72.0
	require.NoError(t, a.trips.Save(context.Background(), &models.Trip{
		ID: "t1", Origin: "NYP", Destination: "WAS", TravelDate: "2026-03-15", PricePaid: 89, CurrentPrice: &paid,
	}))

	w := a.do(http.MethodGet, "/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.TripSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Upcoming)
	assert.Equal(t, 17.0, summary.TotalSavings)
}

func TestUnknownRoute(t *testing.T) {
	w := newTestAPI(t).do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
