package uiapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/meter"
	"github.com/yashdodwani/gridflow/internal/store"
	"github.com/yashdodwani/gridflow/internal/tariff"
)

type testEnv struct {
	srv      *Server
	handler  http.Handler
	store    *store.Store
	resolver *civiltime.Resolver
}

func band(start, end string, price float64, label string) tariff.Band {
	return tariff.Band{
		Start:       civiltime.MustParseTimeOfDay(start),
		End:         civiltime.MustParseTimeOfDay(end),
		PricePerKWh: price,
		Label:       label,
	}
}

// newTestEnv pins the clock at 13:30 UTC, which is 19:00 in Asia/Kolkata.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loc, err := civiltime.LoadZone("Asia/Kolkata")
	require.NoError(t, err)
	r, err := civiltime.NewResolver(loc, civiltime.FixedClock{At: time.Date(2025, 1, 15, 13, 30, 0, 0, time.UTC)})
	require.NoError(t, err)

	sched, err := tariff.Build([]tariff.Band{
		band("00:00", "06:00", 3, "night"),
		band("06:00", "10:00", 6, "morning"),
		band("10:00", "18:00", 5, "day"),
		band("18:00", "22:00", 10, "peak"),
		band("22:00", "24:00", 3, "night"),
	})
	require.NoError(t, err)

	st, err := store.NewStore(filepath.Join(t.TempDir(), "api.db"), r)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := NewServer(Options{
		Resolver:       r,
		Schedule:       sched,
		Store:          st,
		EmissionFactor: 0.82,
		Currency:       "₹",
		Version:        "test",
	})
	return &testEnv{srv: srv, handler: srv.Handler(), store: st, resolver: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m), string(body))
	return m
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, code)

	m := decode(t, body)
	assert.Equal(t, "ok", m["status"])
	assert.Equal(t, "Asia/Kolkata", m["zone"])
	assert.Equal(t, "2025-01-15T19:00:00+05:30", m["now"])
}

func TestPrice(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantPrice float64
	}{
		{"utc input resolves to evening peak", "?at=2025-01-15T13:30:00Z", http.StatusOK, 10},
		{"civil input", "?at=2025-01-15%2022:00", http.StatusOK, 3},
		{"last second of peak", "?at=2025-01-15T21:59:59%2B05:30", http.StatusOK, 10},
		{"defaults to now", "", http.StatusOK, 10},
		{"garbage", "?at=yesterday-ish", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := env.do(t, http.MethodGet, "/api/price"+tt.query, nil)
			require.Equal(t, tt.wantCode, code, string(body))

			m := decode(t, body)
			if tt.wantCode != http.StatusOK {
				assert.Contains(t, m["error"], "invalid timestamp")
				return
			}
			assert.Equal(t, tt.wantPrice, m["price"])
		})
	}
}

func TestTariffs(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/tariffs", nil)
	require.Equal(t, http.StatusOK, code)
	m := decode(t, body)
	bands := m["bands"].([]any)
	require.Len(t, bands, 5)
	assert.Equal(t, "00:00", bands[0].(map[string]any)["start"])
	assert.Equal(t, 10.0, m["max_price"])

	code, body = env.do(t, http.MethodGet, "/api/tariffs/current", nil)
	require.Equal(t, http.StatusOK, code)
	m = decode(t, body)
	assert.Equal(t, 10.0, m["price"])
	assert.Equal(t, "peak", m["band"].(map[string]any)["label"])
}

func TestMeterAndDashboard(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodGet, "/api/meter/current", nil)
	assert.Equal(t, http.StatusNotFound, code)

	readings := []meter.Reading{}
	for _, raw := range []string{"2025-01-14 23:45", "2025-01-15 05:45", "2025-01-15 18:00", "2025-01-15 18:15"} {
		at, err := env.resolver.Parse(raw)
		require.NoError(t, err)
		readings = append(readings, meter.Reading{At: at, EnergyKWh: 1})
	}
	_, err := env.store.AppendReadings(readings...)
	require.NoError(t, err)

	code, body := env.do(t, http.MethodGet, "/api/meter/current", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2025-01-15T18:15:00+05:30", decode(t, body)["timestamp"])

	code, body = env.do(t, http.MethodGet, "/api/meter/history?limit=2", nil)
	require.Equal(t, http.StatusOK, code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(body, &history))
	assert.Len(t, history, 2)

	code, _ = env.do(t, http.MethodGet, "/api/meter/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/api/dashboard/summary", nil)
	require.Equal(t, http.StatusOK, code)
	m := decode(t, body)
	// Yesterday's 23:45 reading is outside today's civil bounds.
	assert.Equal(t, 3.0, m["readings"])
	assert.InDelta(t, 23.0, m["cost"].(float64), 1e-9)
	assert.Equal(t, "2025-01-15", m["date"])
	assert.Equal(t, 10.0, m["current_price"])
}

func TestApplianceCRUD(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/appliances", map[string]any{
		"name": "washer", "power_kw": 4, "cycle_minutes": 60,
		"window_start": "17:00", "window_end": "23:00", "enabled": true,
	})
	require.Equal(t, http.StatusCreated, code, string(body))
	created := decode(t, body)
	id := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "2025-01-15T19:00:00+05:30", created["created_at"])

	code, body = env.do(t, http.MethodGet, "/api/appliances/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "17:00", decode(t, body)["window_start"])

	code, body = env.do(t, http.MethodPut, "/api/appliances/"+id, map[string]any{
		"name": "washer", "power_kw": 2, "cycle_minutes": 90, "enabled": true,
		"created_at": "1999-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, "2025-01-15T19:00:00+05:30", decode(t, body)["created_at"])

	code, _ = env.do(t, http.MethodPut, "/api/appliances/nope", map[string]any{"name": "x", "power_kw": 1, "cycle_minutes": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = env.do(t, http.MethodGet, "/api/appliances", nil)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2.0, list[0]["power_kw"])

	code, _ = env.do(t, http.MethodPost, "/api/appliances", map[string]any{"name": "broken", "power_kw": 0, "cycle_minutes": 10})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodDelete, "/api/appliances/"+id, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodDelete, "/api/appliances/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t)

	washer := map[string]any{
		"name": "washer", "power_kw": 4, "cycle_minutes": 60,
		"window_start": "17:00", "window_end": "23:00",
	}

	t.Run("ad hoc profile", func(t *testing.T) {
		code, body := env.do(t, http.MethodPost, "/api/recommendations", map[string]any{
			"appliance": washer, "date": "2025-01-15", "baseline_start": "2025-01-15 19:00",
		})
		require.Equal(t, http.StatusOK, code, string(body))

		var plans []map[string]any
		require.NoError(t, json.Unmarshal(body, &plans))
		require.Len(t, plans, 1)

		cheapest := plans[0]["cheapest"].(map[string]any)
		assert.Equal(t, "2025-01-15T22:00:00+05:30", cheapest["start"])
		assert.InDelta(t, 12.0, cheapest["total_cost"].(float64), 1e-9)

		savings := plans[0]["savings"].(map[string]any)
		assert.InDelta(t, 28.0, savings["cost_delta"].(float64), 1e-9)
		assert.Len(t, plans[0]["alternatives"], 3)
	})

	t.Run("no feasible slot", func(t *testing.T) {
		code, _ := env.do(t, http.MethodPost, "/api/recommendations", map[string]any{
			"appliance": map[string]any{"name": "dryer", "power_kw": 2, "cycle_minutes": 90, "window_start": "17:00", "window_end": "18:00"},
			"date":      "2025-01-15",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
	})

	t.Run("bad baseline", func(t *testing.T) {
		code, _ := env.do(t, http.MethodPost, "/api/recommendations", map[string]any{"appliance": washer, "baseline_start": "soon"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("stored appliances, empty body", func(t *testing.T) {
		code, body := env.do(t, http.MethodPost, "/api/appliances", washer)
		require.Equal(t, http.StatusCreated, code, string(body))

		req := httptest.NewRequest(http.MethodPost, "/api/recommendations", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var plans []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
		// Stored appliances default to disabled unless enabled is sent.
		assert.Empty(t, plans)
	})

	t.Run("unknown id", func(t *testing.T) {
		code, _ := env.do(t, http.MethodPost, "/api/recommendations", map[string]any{"appliance_ids": []string{"missing"}})
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestCanUseNowAndSimulateCost(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/appliances", map[string]any{
		"name": "kettle", "power_kw": 4, "cycle_minutes": 60, "enabled": true,
	})
	require.Equal(t, http.StatusCreated, code)
	id := decode(t, body)["id"].(string)

	code, body = env.do(t, http.MethodGet, "/api/appliances/"+id+"/can-use-now", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	v := decode(t, body)
	assert.Equal(t, false, v["can_use_now"])
	assert.Equal(t, 10.0, v["current_price"])

	code, body = env.do(t, http.MethodPost, "/api/simulate-cost", map[string]any{
		"appliance_id": id, "start": "2025-01-15 22:00",
	})
	require.Equal(t, http.StatusOK, code, string(body))
	run := decode(t, body)["run"].(map[string]any)
	assert.InDelta(t, 12.0, run["total_cost"].(float64), 1e-9)

	code, _ = env.do(t, http.MethodPost, "/api/simulate-cost", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/api/appliances/missing/can-use-now", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMeterWebsocket(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/meter"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	at, err := env.resolver.Parse("2025-01-15 19:00")
	require.NoError(t, err)
	require.NoError(t, env.srv.Hub().BroadcastReading(meter.Reading{At: at, EnergyKWh: 0.75}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var envl Envelope
	require.NoError(t, json.Unmarshal(msg, &envl))
	assert.Equal(t, TypeMeterReading, envl.Type)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(envl.Payload, &payload))
	assert.Equal(t, "2025-01-15T19:00:00+05:30", payload["timestamp"])
	assert.Equal(t, 0.75, payload["energy_kwh"])
}
