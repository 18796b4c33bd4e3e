package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/warden/internal/application/registry"
	memoryevents "github.com/aescanero/warden/pkg/adapters/events/memory"
	memorystorage "github.com/aescanero/warden/pkg/adapters/storage/memory"
	"github.com/aescanero/warden/pkg/domain"
)

type nopMetrics struct{}

func (nopMetrics) RecordRegistration()                   {}
func (nopMetrics) RecordHeartbeat()                      {}
func (nopMetrics) RecordSweepDemotion()                  {}
func (nopMetrics) RecordProtocolError()                  {}
func (nopMetrics) SetWorkerCounts(map[domain.Status]int) {}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	mgr := registry.NewManager(
		memorystorage.NewStatusStore(),
		memoryevents.NewEventBus(),
		nopMetrics{},
		registry.NewValidator(),
		zap.NewNop(),
		15*time.Second,
		5*time.Second,
	)

	return NewServer(&Config{
		Port:     8080,
		Registry: mgr,
		Logger:   zap.NewNop(),
	})
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRegisterWorker(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/workers", WorkerRegisterRequest{
		Name: "worker-1",
		Host: "10.0.0.1",
		Port: 8001,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp WorkerRegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.WorkerID)
	require.Equal(t, "registered", resp.Status)
	require.NotEmpty(t, resp.RegisteredAt)
}

func TestRegisterWorkerInvalidPayload(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/workers", map[string]interface{}{
		"name": "worker-1",
		// host and port missing
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetWorker(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/workers", WorkerRegisterRequest{
		WorkerID: "w1",
		Name:     "worker-1",
		Host:     "10.0.0.1",
		Port:     8001,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, http.MethodGet, "/api/v1/workers/w1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp WorkerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "w1", resp.WorkerID)
	require.Equal(t, "worker-1", resp.Name)
	require.Equal(t, "registered", resp.Status)
	require.Empty(t, resp.LastHeartbeatAt)
}

func TestGetWorkerNotFound(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/workers/ghost", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListWorkers(t *testing.T) {
	s := newTestServer(t)

	for _, workerID := range []string{"w1", "w2"} {
		w := doRequest(s, http.MethodPost, "/api/v1/workers", WorkerRegisterRequest{
			WorkerID: workerID,
			Name:     workerID,
			Host:     "10.0.0.1",
			Port:     8001,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(s, http.MethodGet, "/api/v1/workers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Workers []WorkerResponse `json:"workers"`
		Total   int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	require.Len(t, resp.Workers, 2)
}

func TestRemoveWorker(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/workers", WorkerRegisterRequest{
		WorkerID: "w1",
		Name:     "worker-1",
		Host:     "10.0.0.1",
		Port:     8001,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s, http.MethodDelete, "/api/v1/workers/w1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/api/v1/workers/w1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
