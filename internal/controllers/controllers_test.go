package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/config"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/services"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthController(stubPinger{}).HealthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthController(stubPinger{err: errors.New("down")}).HealthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// The services below have no repositories; every case must be rejected
// before a service call.
func newControllers() (*RoutesController, *OrdersController, *DispatchController, *OperatorsController) {
	cfg := &config.Config{TimeZone: time.UTC}
	rs := services.NewRouteService(cfg, nil, nil, nil)
	ords := services.NewOrderService(cfg, nil, nil, nil)
	ds := services.NewDispatchService(cfg, nil, nil, nil)
	return NewRoutesController(rs, nil), NewOrdersController(ords), NewDispatchController(ds, nil, nil),
		NewOperatorsController(services.NewOperatorService(nil))
}

func TestRequestValidation(t *testing.T) {
	routesCtl, ordersCtl, dispatchCtl, operatorsCtl := newControllers()

	cases := []struct {
		name     string
		handler  http.HandlerFunc
		method   string
		target   string
		body     string
		vars     map[string]string
		wantCode int
		wantErr  string
	}{
		{"create route malformed json", routesCtl.CreateHandler, http.MethodPost, "/api/v1/routes", `{`, nil, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"create route missing name", routesCtl.CreateHandler, http.MethodPost, "/api/v1/routes", `{"cadence":"monthly"}`, nil, http.StatusBadRequest, utils.ErrCodeValidation},
		{"create route bad weekday", routesCtl.CreateHandler, http.MethodPost, "/api/v1/routes", `{"name":"A","cadence":"monthly","service_day":9}`, nil, http.StatusBadRequest, utils.ErrCodeValidation},
		{"create route bad date", routesCtl.CreateHandler, http.MethodPost, "/api/v1/routes", `{"name":"A","cadence":"monthly","service_start_date":"04/06/2026"}`, nil, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"update route bad id", routesCtl.UpdateHandler, http.MethodPatch, "/api/v1/routes/x", `{}`, map[string]string{"id": "x"}, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"update route negative target", routesCtl.UpdateHandler, http.MethodPatch, "/api/v1/routes/1", `{"target_units":-1}`, map[string]string{"id": "6f1c2a4e-8a0b-4d35-9a55-0a4a0f0e3b11"}, http.StatusBadRequest, utils.ErrCodeValidation},
		{"status not allowed", routesCtl.SetStatusHandler, http.MethodPatch, "/api/v1/routes/1/status", `{"status":"paused"}`, map[string]string{"id": "6f1c2a4e-8a0b-4d35-9a55-0a4a0f0e3b11"}, http.StatusBadRequest, utils.ErrCodeValidation},
		{"assign bad order id", ordersCtl.AssignRouteHandler, http.MethodPatch, "/api/v1/orders/x/route", `{}`, map[string]string{"id": "nope"}, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"geocode limit too high", ordersCtl.GeocodeHandler, http.MethodPost, "/api/v1/orders/geocode", `{"limit":500}`, nil, http.StatusBadRequest, utils.ErrCodeValidation},
		{"geocode without api key", ordersCtl.GeocodeHandler, http.MethodPost, "/api/v1/orders/geocode", ``, nil, http.StatusServiceUnavailable, utils.ErrCodeNotConfigured},
		{"run sheet bad date", dispatchCtl.RunSheetHandler, http.MethodGet, "/api/v1/dispatch/run-sheet?date=tomorrow", ``, nil, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"order status unknown", ordersCtl.SetStatusHandler, http.MethodPatch, "/api/v1/orders/1/status", `{"status":"lost"}`, map[string]string{"id": "6f1c2a4e-8a0b-4d35-9a55-0a4a0f0e3b11"}, http.StatusBadRequest, utils.ErrCodeValidation},
		{"order status missing", ordersCtl.SetStatusHandler, http.MethodPatch, "/api/v1/orders/1/status", `{}`, map[string]string{"id": "6f1c2a4e-8a0b-4d35-9a55-0a4a0f0e3b11"}, http.StatusBadRequest, utils.ErrCodeValidation},
		{"delete order bad id", ordersCtl.DeleteHandler, http.MethodDelete, "/api/v1/orders/x", ``, map[string]string{"id": "x"}, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"auto-assign bad week", dispatchCtl.AutoAssignHandler, http.MethodPost, "/api/v1/dispatch/auto-assign?week=soon", ``, nil, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"create operator missing name", operatorsCtl.CreateHandler, http.MethodPost, "/api/v1/operators", `{"payout_rate":30}`, nil, http.StatusBadRequest, utils.ErrCodeValidation},
		{"create operator payout over 100", operatorsCtl.CreateHandler, http.MethodPost, "/api/v1/operators", `{"name":"Dana","payout_rate":150}`, nil, http.StatusBadRequest, utils.ErrCodeValidation},
		{"create operator bad email", operatorsCtl.CreateHandler, http.MethodPost, "/api/v1/operators", `{"name":"Dana","email":"dana"}`, nil, http.StatusBadRequest, utils.ErrCodeValidation},
		{"update operator negative payout", operatorsCtl.UpdateHandler, http.MethodPatch, "/api/v1/operators/1", `{"payout_rate":-1}`, map[string]string{"id": "6f1c2a4e-8a0b-4d35-9a55-0a4a0f0e3b11"}, http.StatusBadRequest, utils.ErrCodeValidation},
		{"delete operator bad id", operatorsCtl.DeleteHandler, http.MethodDelete, "/api/v1/operators/x", ``, map[string]string{"id": "x"}, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
		{"kpis bad week", dispatchCtl.KPIsHandler, http.MethodGet, "/api/v1/dispatch/kpis?week=2026-13-01", ``, nil, http.StatusBadRequest, utils.ErrCodeInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			if tc.vars != nil {
				req = mux.SetURLVars(req, tc.vars)
			}
			rec := httptest.NewRecorder()
			tc.handler(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantErr, decodeError(t, rec).Code)
		})
	}
}
