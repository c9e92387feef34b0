package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCRM serves crm.deal.list with total records split into pages of 50.
type fakeCRM struct {
	total    int
	failing  map[int]int // start -> number of 500s before success, -1 for always
	calls    map[int]*int32
	lastList atomic.Value
}

func newFakeCRM(total int) *fakeCRM {
	f := &fakeCRM{total: total, failing: map[int]int{}, calls: map[int]*int32{}}
	for start := 0; start < total || start == 0; start += 50 {
		f.calls[start] = new(int32)
	}
	return f
}

func (f *fakeCRM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/crm.deal.list.json" {
		http.NotFound(w, r)
		return
	}
	f.lastList.Store(r.URL.Query())

	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	n := atomic.AddInt32(f.calls[start], 1)
	if fails, ok := f.failing[start]; ok && (fails < 0 || int(n) <= fails) {
		http.Error(w, "upstream hiccup", http.StatusInternalServerError)
		return
	}

	var result []map[string]any
	for i := start; i < start+50 && i < f.total; i++ {
		result = append(result, map[string]any{
			"ID":             strconv.Itoa(i),
			fieldStudentName: fmt.Sprintf("Student %d", i),
			fieldGrade:       []string{"3"},
			"DATE_CREATE":    "2025-09-01T10:00:00+07:00",
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "total": f.total})
}

func testCRMClient(baseURL string) *CRMClient {
	return NewCRMClient(CRMConfig{
		WebhookURL:    baseURL + "/",
		CategoryID:    "7",
		MaxParallel:   2,
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	}, zap.NewNop())
}

func TestCRMClient_FetchLeads(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		failing map[int]int
		wantIDs int
		wantErr bool
	}{
		{name: "single page", total: 20, wantIDs: 20},
		{name: "pages fetched in parallel", total: 120, wantIDs: 120},
		{name: "transient failure is retried", total: 120, failing: map[int]int{50: 2}, wantIDs: 120},
		{name: "page that keeps failing is skipped", total: 120, failing: map[int]int{50: -1}, wantIDs: 70},
		{name: "first page failure is fatal", total: 120, failing: map[int]int{0: -1}, wantErr: true},
		{name: "empty category", total: 0, wantIDs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := newFakeCRM(tt.total)
			for k, v := range tt.failing {
				crm.failing[k] = v
			}
			srv := httptest.NewServer(crm)
			defer srv.Close()

			got, err := testCRMClient(srv.URL).FetchLeads(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.wantIDs)

			prev := -1
			for _, l := range got {
				id, err := strconv.Atoi(l.ID)
				require.NoError(t, err)
				assert.Greater(t, id, prev, "leads must keep page order")
				prev = id
				assert.Equal(t, "Student "+l.ID, l.StudentName)
				assert.Equal(t, "3", l.Grade)
				require.NotNil(t, l.CreatedAt)
			}
		})
	}
}

func TestCRMClient_FetchLeads_Query(t *testing.T) {
	crm := newFakeCRM(1)
	srv := httptest.NewServer(crm)
	defer srv.Close()

	_, err := testCRMClient(srv.URL).FetchLeads(context.Background())
	require.NoError(t, err)

	q := crm.lastList.Load().(url.Values)
	assert.Equal(t, []string{"7"}, q["filter[CATEGORY_ID]"])
	assert.Equal(t, []string{"N"}, q["filter["+DisabledField+"]"])
	assert.Equal(t, selectFields, q["select[]"])
	assert.Equal(t, []string{"0"}, q["start"])
}

func TestCRMClient_FetchLeads_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"INVALID_CREDENTIALS"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testCRMClient(srv.URL).FetchLeads(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCRMClient_DisableLead(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		response  string
		wantErr   string
		wantCalls int32
	}{
		{name: "accepted", status: http.StatusOK, response: `{"result": true}`, wantCalls: 1},
		{name: "rejected with description", status: http.StatusOK, response: `{"error": "NOT_FOUND", "error_description": "Deal is not found"}`, wantErr: "Deal is not found", wantCalls: 1},
		{name: "rejected without description", status: http.StatusOK, response: `{"error": "ACCESS_DENIED"}`, wantErr: "ACCESS_DENIED", wantCalls: 1},
		{name: "server error exhausts retries", status: http.StatusBadGateway, response: `bad gateway`, wantErr: "502", wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			var body struct {
				ID     string            `json:"id"`
				Fields map[string]string `json:"fields"`
			}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/crm.deal.update.json", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			err := testCRMClient(srv.URL).DisableLead(context.Background(), "42")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			assert.Equal(t, "42", body.ID)
			assert.Equal(t, map[string]string{DisabledField: "Y"}, body.Fields)
		})
	}
}

func TestCRMClient_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(newFakeCRM(10))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testCRMClient(srv.URL).FetchLeads(ctx)
	assert.Error(t, err)
}

func TestScalarString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"  padded "`, "padded"},
		{`12`, "12"},
		{`1.5`, "1.5"},
		{`true`, "true"},
		{`null`, ""},
		{`{"a": 1}`, ""},
		{`["a", "", 3, null]`, "a, 3"},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scalarString(json.RawMessage(tt.in)), tt.in)
	}
}
