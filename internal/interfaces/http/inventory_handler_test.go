package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/domain/tenant"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
)

const (
	testProductID = "5a1e0000-0000-4000-8000-00000000a001"
	testWhID      = "11111111-1111-4111-8111-111111111111"
	testMoveID    = "99999999-9999-4999-8999-999999999999"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeMovements struct {
	last     inventory.MovementInputDTO
	calls    int
	replayed bool
	err      error
}

func (f *fakeMovements) Move(_ context.Context, in inventory.MovementInputDTO) (*inventory.MovementResult, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	to := in.ToWarehouseID
	key := in.IdempotencyKey
	return &inventory.MovementResult{
		Movement: &entity.Movement{
			ID:             testMoveID,
			TenantID:       in.Scope.TenantID,
			Type:           in.Type,
			ProductID:      in.ProductID,
			ToWarehouseID:  &to,
			Quantity:       in.Quantity,
			IdempotencyKey: &key,
			CreatedAt:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		},
		Replayed: f.replayed,
	}, nil
}

type fakeQueries struct {
	lastScope  tenant.Scope
	lastFilter repository.BalanceFilter
	lastLimit  int
	lastOffset int
	err        error
}

func (f *fakeQueries) ListBalances(_ context.Context, scope tenant.Scope, filter repository.BalanceFilter) (*dto.BalanceListResponse, error) {
	f.lastScope, f.lastFilter = scope, filter
	if f.err != nil {
		return nil, f.err
	}
	return &dto.BalanceListResponse{Items: []dto.BalanceResponse{}, Page: dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset}}, nil
}

func (f *fakeQueries) Kardex(_ context.Context, scope tenant.Scope, productID string, limit, offset int) (*dto.KardexResponse, error) {
	f.lastScope, f.lastLimit, f.lastOffset = scope, limit, offset
	if f.err != nil {
		return nil, f.err
	}
	return &dto.KardexResponse{ProductID: productID, Items: []dto.MovementResponse{}, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

func (f *fakeQueries) GetMovement(_ context.Context, scope tenant.Scope, id string) (*dto.MovementResponse, error) {
	f.lastScope = scope
	if f.err != nil {
		return nil, f.err
	}
	return &dto.MovementResponse{ID: id, Type: "IN", Quantity: "1.000"}, nil
}

func (f *fakeQueries) KardexPDF(_ context.Context, scope tenant.Scope, productID string) ([]byte, error) {
	f.lastScope = scope
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

type testServer struct {
	app       *fiber.App
	movements *fakeMovements
	queries   *fakeQueries
}

func newTestServer(t *testing.T, perMinute int) *testServer {
	t.Helper()
	s := &testServer{movements: &fakeMovements{}, queries: &fakeQueries{}}
	s.app = fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(s.app, apphttp.RouterDeps{
		ServiceName: "ledger-test",
		Movements:   s.movements,
		Queries:     s.queries,
		Auth:        testAuth(false),
		RateLimit:   apphttp.RateLimitConfig{PerMinute: perMinute},
		Gatherer:    prometheus.NewRegistry(),
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, role, body string, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func inBody(extra string) string {
	return fmt.Sprintf(`{"type":"in","product_id":%q,"to_warehouse_id":%q,"quantity":"12.5"%s}`, testProductID, testWhID, extra)
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/inventory/movements
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_Creado(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "CLERK", inBody(""), "Idempotency-Key", "abc-1")

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Idempotent-Replayed"))

	var out dto.MovementResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, testMoveID, out.ID)
	assert.Equal(t, "12.500", out.Quantity)
	assert.Equal(t, "IN", out.Type)

	in := s.movements.last
	assert.Equal(t, tenant.Scope{TenantID: testTenantID}, in.Scope)
	assert.Equal(t, testUserID, in.UserID)
	assert.Equal(t, "CLERK", in.Role)
	assert.Equal(t, entity.MovementTypeIN, in.Type)
	assert.Equal(t, "abc-1", in.IdempotencyKey)
	assert.True(t, decimal.RequireFromString("12.5").Equal(in.Quantity))
}

func TestRegisterMovement_CantidadNumericaJSON(t *testing.T) {
	s := newTestServer(t, 0)
	body := fmt.Sprintf(`{"type":"IN","product_id":%q,"to_warehouse_id":%q,"quantity":0.1}`, testProductID, testWhID)
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "ADMIN", body)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, decimal.RequireFromString("0.1").Equal(s.movements.last.Quantity))
}

func TestRegisterMovement_Replay(t *testing.T) {
	s := newTestServer(t, 0)
	s.movements.replayed = true
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "CLERK", inBody(`,"idempotency_key":"k-1"`))

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, "k-1", s.movements.last.IdempotencyKey)
}

func TestRegisterMovement_ClaveBodyYHeaderDistintas(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "CLERK", inBody(`,"idempotency_key":"k-1"`), "Idempotency-Key", "k-2")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, s.movements.calls)
}

func TestRegisterMovement_Validacion(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "CLERK", `{"type":"IN","product_id":"x","quantity":"1"}`)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, resp)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Contains(t, e.Details, "product_id")
	assert.Zero(t, s.movements.calls)
}

func TestRegisterMovement_BodyInvalido(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "CLERK", `{"type":`)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Code)
}

func TestRegisterMovement_ReadOnlyProhibido(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "READ_ONLY", inBody(""))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, s.movements.calls)
}

func TestRegisterMovement_SinToken(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "", inBody(""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterMovement_MapeoDeErrores(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insuficiente", fmt.Errorf("out: %w", domain.ErrInsufficientStock), http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"invalido", fmt.Errorf("%w: quantity", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION"},
		{"no encontrado", fmt.Errorf("%w: bodega", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"conflicto", domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"no disponible", fmt.Errorf("%w: lock timeout", domain.ErrUnavailable), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"sin scope", domain.ErrMissingScope, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"interno", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, 0)
			s.movements.err = tc.err
			resp := s.do(t, http.MethodPost, "/api/inventory/movements", "CLERK", inBody(""))

			require.Equal(t, tc.status, resp.StatusCode)
			e := decodeError(t, resp)
			assert.Equal(t, tc.code, e.Code)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, e.Message, "boom")
			}
			if tc.status == http.StatusServiceUnavailable {
				assert.Equal(t, "1", resp.Header.Get("Retry-After"))
			}
		})
	}
}

func TestRegisterMovement_RateLimitPorTenant(t *testing.T) {
	s := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		resp := s.do(t, http.MethodPost, "/api/inventory/movements", "CLERK", inBody(""))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := s.do(t, http.MethodPost, "/api/inventory/movements", "CLERK", inBody(""))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, resp).Code)
	assert.Equal(t, 2, s.movements.calls)

	// las lecturas no consumen el límite
	resp = s.do(t, http.MethodGet, "/api/inventory/balances", "CLERK", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestListBalances_FiltrosYPaginacion(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodGet, "/api/inventory/balances?product_id="+testProductID+"&limit=500&offset=3", "READ_ONLY", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testProductID, s.queries.lastFilter.ProductID)
	assert.Equal(t, dto.MaxLimit, s.queries.lastFilter.Limit)
	assert.Equal(t, 3, s.queries.lastFilter.Offset)
	assert.Equal(t, tenant.Scope{TenantID: testTenantID}, s.queries.lastScope)
}

func TestListBalances_LimitePorDefecto(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodGet, "/api/inventory/balances", "READ_ONLY", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.DefaultLimit, s.queries.lastFilter.Limit)
}

func TestListBalances_FiltroNoUUID(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodGet, "/api/inventory/balances?warehouse_id=abc", "READ_ONLY", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListBalances_OffsetNegativo(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodGet, "/api/inventory/balances?offset=-1", "READ_ONLY", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKardex_LimitePorDefecto(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodGet, "/api/inventory/kardex/"+testProductID, "READ_ONLY", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.DefaultKardexLimit, s.queries.lastLimit)
	assert.Equal(t, 0, s.queries.lastOffset)
}

func TestKardex_ProductoInexistente(t *testing.T) {
	s := newTestServer(t, 0)
	s.queries.err = fmt.Errorf("%w: producto", domain.ErrNotFound)
	resp := s.do(t, http.MethodGet, "/api/inventory/kardex/"+testProductID, "READ_ONLY", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKardexPDF(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodGet, "/api/inventory/kardex/"+testProductID+"/pdf", "READ_ONLY", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

func TestGetMovement(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodGet, "/api/inventory/movements/"+testMoveID, "READ_ONLY", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/inventory/movements/no-uuid", "READ_ONLY", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rutas públicas
// ──────────────────────────────────────────────────────────────────────────────

func TestHealthYMetrics(t *testing.T) {
	s := newTestServer(t, 0)
	resp := s.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
