package scans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/config"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/optery"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/tasks"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

func authAs(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func scansRouter(h *Handler) *gin.Engine {
	r := testutils.SetupTestRouter()
	group := r.Group("/optery")
	group.Use(authAs("user-uuid"))
	{
		group.POST("/data-scans", h.EnqueueDataScan)
		group.GET("/data-scans", h.GetDataScanStatus)
		group.GET("/history", h.GetScanHistory)
		group.GET("/databrokers", h.GetDataBrokers)
	}
	return r
}

func newHandler(t *testing.T, providerURL string) (*Handler, *tasks.Queue, func()) {
	rdb, cleanup := testutils.SetupTestRedis(t)
	queue := tasks.NewQueue(rdb)
	client := optery.NewClient(&config.Config{
		OpteryBaseURL: providerURL,
		OpteryAPIKey:  "test-token",
	})
	return NewHandler(queue, client), queue, cleanup
}

func TestEnqueueDataScan_Accepted(t *testing.T) {
	h, queue, cleanup := newHandler(t, "http://optery.invalid")
	defer cleanup()

	r := scansRouter(h)

	body, _ := json.Marshal(map[string]string{
		"member_uuid": "member-123",
		"email":       "user@example.com",
	})
	req, _ := http.NewRequest(http.MethodPost, "/optery/data-scans", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusAccepted, resp.Code)

	var out struct {
		Data struct {
			TaskID string `json:"task_id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Data.TaskID)
	assert.Equal(t, "processing", out.Data.Status)

	// the job actually landed on the queue
	job, err := queue.Dequeue(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, out.Data.TaskID, job.TaskID)
	assert.Equal(t, "member-123", job.MemberUUID)
}

func TestEnqueueDataScan_MissingMemberUUID(t *testing.T) {
	h, _, cleanup := newHandler(t, "http://optery.invalid")
	defer cleanup()

	r := scansRouter(h)

	req, _ := http.NewRequest(http.MethodPost, "/optery/data-scans", bytes.NewBufferString(`{"email": "x@y.z"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetDataScanStatus_UnknownTask(t *testing.T) {
	h, _, cleanup := newHandler(t, "http://optery.invalid")
	defer cleanup()

	r := scansRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/optery/data-scans?task_id=missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "Task not found")
}

func TestGetDataScanStatus_Succeeded(t *testing.T) {
	h, queue, cleanup := newHandler(t, "http://optery.invalid")
	defer cleanup()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, "member-123", "user@example.com")
	require.NoError(t, err)

	result := &tasks.ScanResult{
		MemberUUID: "member-123",
		Email:      "user@example.com",
		Scans:      json.RawMessage(`[{"scan_id": "scan-1"}]`),
		Message:    "Data fetched successfully",
	}
	require.NoError(t, queue.SetSucceeded(ctx, taskID, result))

	r := scansRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/optery/data-scans?task_id="+taskID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Message string           `json:"message"`
		Data    tasks.ScanResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "Data fetched successfully", out.Message)
	assert.Equal(t, "member-123", out.Data.MemberUUID)
	assert.JSONEq(t, `[{"scan_id": "scan-1"}]`, string(out.Data.Scans))
}

func TestGetDataScanStatus_Failed(t *testing.T) {
	h, queue, cleanup := newHandler(t, "http://optery.invalid")
	defer cleanup()

	ctx := context.Background()
	taskID, err := queue.Enqueue(ctx, "member-123", "")
	require.NoError(t, err)
	require.NoError(t, queue.SetFailed(ctx, taskID, errors.New("optery: http 503: ")))

	r := scansRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/optery/data-scans?task_id="+taskID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"success":false`)
	assert.Contains(t, resp.Body.String(), "http 503")
}

func TestGetDataScanStatus_StillProcessing(t *testing.T) {
	h, queue, cleanup := newHandler(t, "http://optery.invalid")
	defer cleanup()

	taskID, err := queue.Enqueue(context.Background(), "member-123", "")
	require.NoError(t, err)

	r := scansRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/optery/data-scans?task_id="+taskID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "processing")
}

func TestGetScanHistory_ReturnsRecords(t *testing.T) {
	h, _, cleanup := newHandler(t, "http://optery.invalid")
	defer cleanup()

	_, mock, dbCleanup := testutils.SetupTestDB(t)
	defer dbCleanup()

	mock.ExpectQuery(`SELECT \* FROM "scan_history_records" WHERE member_uuid = \$1 ORDER BY created_at DESC`).
		WithArgs("member-123").
		WillReturnRows(mock.NewRows([]string{"id", "member_uuid", "email", "scan_id"}).
			AddRow("rec-1", "member-123", "user@example.com", "scan-1").
			AddRow("rec-2", "member-123", "user@example.com", "scan-2"))

	r := scansRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/optery/history?member_uuid=member-123", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "scan-2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDataBrokers_ProxiesProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databrokers/data", r.URL.Path)
		w.Write([]byte(`[{"name": "Spokeo"}]`))
	}))
	defer srv.Close()

	h, _, cleanup := newHandler(t, srv.URL)
	defer cleanup()

	r := scansRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/optery/databrokers", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Spokeo")
}
