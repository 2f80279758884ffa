package analyticsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/tablestate"
)

func serveJSON(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_WidgetSuccess(t *testing.T) {
	server := serveJSON(t, http.StatusOK,
		`{"success":true,"widget":{"holderCount":"1200","top10Share":45.5,"phase":"accumulation"}}`,
		func(r *http.Request) {
			if r.URL.Path != "/v3/holders/widget" {
				t.Errorf("expected path /v3/holders/widget, got %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("range"); got != "7d" {
				t.Errorf("expected range 7d, got %q", got)
			}
		})

	client := NewClient(server.URL)
	w, err := client.Holders().Widget(context.Background(), WidgetParams{Range: domain.Range7d})
	if err != nil {
		t.Fatalf("Widget: %v", err)
	}
	if m := w.Metrics["holderCount"]; !m.Valid || m.Value != 1200 {
		t.Errorf("expected holderCount 1200, got %+v", m)
	}
	if _, ok := w.Metrics["phase"]; ok {
		t.Error("label field should not be a metric")
	}
	if len(w.Degraded) != 0 {
		t.Errorf("expected no degraded fields, got %v", w.Degraded)
	}
}

func TestClient_StatsDegraded(t *testing.T) {
	server := serveJSON(t, http.StatusOK,
		`{"success":true,"stats":{"gini":null,"entropy":"n/a","holders":10}}`, nil)

	stats, err := NewClient(server.URL).Holders().Stats(context.Background(), StatsParams{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats.Degraded) != 2 || stats.Degraded[0] != "entropy" || stats.Degraded[1] != "gini" {
		t.Errorf("expected degraded [entropy gini], got %v", stats.Degraded)
	}
	if got := stats.Metrics["gini"].Display(); got != "N/A" {
		t.Errorf("expected N/A, got %q", got)
	}
}

func TestClient_EnvelopeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{"success false", http.StatusOK, `{"success":false,"message":"rate limited"}`, ErrUnsuccessful, "rate limited"},
		{"missing key", http.StatusOK, `{"success":true}`, ErrMalformedResponse, ""},
		{"null key", http.StatusOK, `{"success":true,"widget":null}`, ErrMalformedResponse, ""},
		{"missing success", http.StatusOK, `{"widget":{}}`, ErrMalformedResponse, ""},
		{"not an object", http.StatusOK, `[1,2]`, ErrMalformedResponse, ""},
		{"invalid json", http.StatusOK, `{"success":`, ErrMalformedResponse, ""},
		{"server error", http.StatusInternalServerError, `oops`, ErrUnexpectedStatus, "oops"},
		{"wrong type", http.StatusOK, `{"success":true,"widget":[1]}`, ErrMalformedResponse, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serveJSON(t, tt.status, tt.body, nil)
			_, err := NewClient(server.URL).Holders().Widget(context.Background(), WidgetParams{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if tt.msg != "" && apiErr.Message != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, apiErr.Message)
			}
			if !IsUpstream(err) {
				t.Error("expected IsUpstream")
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, WithTimeout(time.Second)).Holders().Widget(context.Background(), WidgetParams{})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestClient_TransportErrorKeepsCause(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"success":true,"data":{}}`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL).Holders().Widget(ctx, WidgetParams{})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestClient_AuthHeaders(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"success":true,"stats":{}}`, func(r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if got := r.Header.Get("X-API-Key"); got != "key" {
			t.Errorf("expected api key, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("expected user agent, got %q", got)
		}
	})

	client := NewClient(server.URL+"/", WithBearerToken("tok"), WithAPIKey("key"), WithUserAgent("test-agent"))
	if _, err := client.Staking().Stats(context.Background(), StatsParams{}); err != nil {
		t.Fatalf("Stats: %v", err)
	}
}

func TestClient_TableArrayAndKeyed(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		rows    int
		dropped int
		total   int
	}{
		{
			name:    "array with meta",
			body:    `{"success":true,"table":[{"address":"a","balance":"10"},{"balance":"5"}],"meta":{"total":51,"page":2,"limit":25}}`,
			rows:    1,
			dropped: 1,
			total:   51,
		},
		{
			name:  "keyed under rows",
			body:  `{"success":true,"table":{"rows":{"b":{"balance":2},"a":{"balance":1}},"pagination":{"total":2}}}`,
			rows:  2,
			total: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serveJSON(t, http.StatusOK, tt.body, func(r *http.Request) {
				q := r.URL.Query()
				if q.Get("sortBy") != "balance" || q.Get("sortOrder") != "DESC" {
					t.Errorf("unexpected sort params %v", q)
				}
				if q.Get("startDate") != "2026-01-02" {
					t.Errorf("expected startDate 2026-01-02, got %q", q.Get("startDate"))
				}
			})
			table, err := NewClient(server.URL).Holders().Table(context.Background(), TableParams{
				Page:      2,
				Limit:     25,
				SortBy:    "balance",
				StartDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			})
			if err != nil {
				t.Fatalf("Table: %v", err)
			}
			if len(table.Rows) != tt.rows {
				t.Errorf("expected %d rows, got %d", tt.rows, len(table.Rows))
			}
			if table.Dropped != tt.dropped {
				t.Errorf("expected %d dropped, got %d", tt.dropped, table.Dropped)
			}
			if table.Meta.Total == nil || *table.Meta.Total != tt.total {
				t.Errorf("expected total %d, got %v", tt.total, table.Meta.Total)
			}
		})
	}
}

func TestClient_TableFetcherDrivesView(t *testing.T) {
	server := serveJSON(t, http.StatusOK,
		`{"success":true,"table":[{"bucket":"1-10","count":4}],"meta":{"total":1}}`, nil)

	view := tablestate.NewView(NewClient(server.URL).Distribution())
	page, err := view.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(page.Rows) != 1 || page.Rows[0]["bucket"] != "1-10" {
		t.Errorf("unexpected rows %v", page.Rows)
	}
	if view.State().Status != tablestate.StatusSuccess {
		t.Errorf("expected success, got %s", view.State().Status)
	}
}

func TestClient_ChartNormalized(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"success":true,"chart":{"points":[
		{"timestamp":"2026-01-02","metrics":{"a":2}},
		{"timestamp":"2026-01-01","metrics":{"a":1}},
		{"timestamp":"2026-01-02","metrics":{"a":3}},
		{"timestamp":"bogus","metrics":{"a":9}}
	]}}`, nil)

	chart, err := NewClient(server.URL).Holders().Chart(context.Background(), ChartParams{Top: 10})
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	if len(chart.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(chart.Points))
	}
	if chart.Points[0].Timestamp != "2026-01-01" || chart.Points[1].Metrics["a"] != 3 {
		t.Errorf("unexpected points %+v", chart.Points)
	}
	if chart.Stats.Duplicates != 1 || chart.Stats.Unparseable != 1 {
		t.Errorf("unexpected stats %+v", chart.Stats)
	}
}

func TestRichList_Snapshots(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"success":true,"chart":{
		"latest":{"timestamp":"2026-01-02T00:00:00Z","holders":[{"address":"a","rank":1,"balance":"100"}]},
		"baseline":{"a":"80","b":"20"}
	}}`, nil)

	snaps, err := NewClient(server.URL).RichList().Snapshots(context.Background(), ChartParams{})
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if snaps.Latest.TakenAtMs != time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("unexpected latest time %d", snaps.Latest.TakenAtMs)
	}
	if len(snaps.Latest.Holders) != 1 || snaps.Latest.Holders[0].Balance.String() != "100" {
		t.Errorf("unexpected latest %+v", snaps.Latest.Holders)
	}
	if snaps.Baseline == nil || len(snaps.Baseline.Holders) != 2 {
		t.Fatalf("unexpected baseline %+v", snaps.Baseline)
	}
}

func TestRichList_SnapshotsMissingLatest(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"success":true,"chart":{"baseline":[]}}`, nil)

	_, err := NewClient(server.URL).RichList().Snapshots(context.Background(), ChartParams{})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestBalances_Lookup(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"success":true,"balances":{"x":"1.5","y":{"balance":"2"}}}`,
		func(r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/v3/balances/lookup" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var req LookupRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if len(req.Addresses) != 2 {
				t.Errorf("expected 2 addresses, got %v", req.Addresses)
			}
		})

	rows, err := NewClient(server.URL).Balances().Lookup(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestBalances_LookupEmpty(t *testing.T) {
	rows, err := NewClient("http://127.0.0.1:1").Balances().Lookup(context.Background(), nil)
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected empty result without a request, got %v %v", rows, err)
	}
}
