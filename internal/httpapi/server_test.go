package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"living-economy-arena/econsim/internal/agent"
	"living-economy-arena/econsim/internal/events"
	"living-economy-arena/econsim/internal/kernel"
	"living-economy-arena/econsim/internal/money"
	"living-economy-arena/econsim/internal/monetary"
	"living-economy-arena/econsim/internal/psychology"
	"living-economy-arena/econsim/internal/scarcity"
)

type fakeKernel struct {
	markets    map[string]kernel.MarketSnapshot
	agents     map[string]kernel.AgentSnapshot
	commodities map[string]*scarcity.Commodity
	snapshot   kernel.Snapshot

	registered   []*agent.Agent
	unregistered []string
	submitted    []agent.Action

	registerErr error
	submitErr   error

	bus *events.Bus
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		markets:     make(map[string]kernel.MarketSnapshot),
		agents:      make(map[string]kernel.AgentSnapshot),
		commodities: make(map[string]*scarcity.Commodity),
		bus:         events.NewBus(),
	}
}

func (f *fakeKernel) RegisterAgent(a *agent.Agent) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, a)
	return nil
}

func (f *fakeKernel) UnregisterAgent(id string) bool {
	_, ok := f.agents[id]
	if ok {
		f.unregistered = append(f.unregistered, id)
	}
	return ok
}

func (f *fakeKernel) SubmitAction(agentID string, a agent.Action) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, a)
	return nil
}

func (f *fakeKernel) MarketByID(id string) (kernel.MarketSnapshot, bool) {
	m, ok := f.markets[id]
	return m, ok
}

func (f *fakeKernel) AgentByID(id string) (kernel.AgentSnapshot, bool) {
	a, ok := f.agents[id]
	return a, ok
}

func (f *fakeKernel) Commodity(id string) (*scarcity.Commodity, bool) {
	c, ok := f.commodities[id]
	return c, ok
}

func (f *fakeKernel) Snapshot() kernel.Snapshot {
	return f.snapshot
}

func (f *fakeKernel) Subscribe(kind events.Kind) *events.Subscription {
	return f.bus.Subscribe(kind)
}

func (f *fakeKernel) Unsubscribe(sub *events.Subscription) {
	f.bus.Unsubscribe(sub)
}

func newTestServer(k kernelAPI) *Server {
	return New(k, DefaultConfig(), nil, nil, nil)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponseT {
	t.Helper()
	var resp apiResponseT
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// apiResponseT mirrors dto.APIResponse loosely typed, for test assertions
// against arbitrary Data payloads without importing dto's exact types.
type apiResponseT struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   map[string]interface{} `json:"error"`
}

func TestGetMarketSnapshotReturnsKnownMarket(t *testing.T) {
	fk := newFakeKernel()
	fk.markets["food"] = kernel.MarketSnapshot{ID: "food", Name: "Food", CurrentPrice: "100.000000000000000000"}
	s := newTestServer(fk)

	req := httptest.NewRequest(http.MethodGet, "/v1/markets/food/snapshot", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "food", resp.Data["id"])
}

func TestGetMarketSnapshotReturns404ForUnknownMarket(t *testing.T) {
	s := newTestServer(newFakeKernel())

	req := httptest.NewRequest(http.MethodGet, "/v1/markets/missing/snapshot", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPsychologyReturnsSnapshotState(t *testing.T) {
	fk := newFakeKernel()
	fk.snapshot = kernel.Snapshot{Psychology: psychology.State{FearIndex: 0.8, GlobalSentiment: 0.3}}
	s := newTestServer(fk)

	req := httptest.NewRequest(http.MethodGet, "/v1/psychology", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, 0.8, resp.Data["fearIndex"])
}

func TestGetMonetaryReturnsSnapshotState(t *testing.T) {
	fk := newFakeKernel()
	fk.snapshot = kernel.Snapshot{Monetary: monetary.State{CurrentInflationRate: 0.05, MoneySupply: money.NewFromInt(1000)}}
	s := newTestServer(fk)

	req := httptest.NewRequest(http.MethodGet, "/v1/monetary", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, 0.05, resp.Data["currentInflationRate"])
}

func TestGetScarcityReturns404ForUnknownCommodity(t *testing.T) {
	s := newTestServer(newFakeKernel())

	req := httptest.NewRequest(http.MethodGet, "/v1/scarcity/oil", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPortfolioReturnsAgentSnapshot(t *testing.T) {
	fk := newFakeKernel()
	fk.agents["a1"] = kernel.AgentSnapshot{ID: "a1", Wealth: "500.000000000000000000", Portfolio: map[string]string{"food": "10"}}
	s := newTestServer(fk)

	req := httptest.NewRequest(http.MethodGet, "/v1/agents/a1/portfolio", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "a1", resp.Data["id"])
}

func TestRegisterAgentReturns201AndEnqueuesRegistration(t *testing.T) {
	fk := newFakeKernel()
	s := newTestServer(fk)

	body, _ := json.Marshal(map[string]string{"id": "a1", "wealth": "1000", "behaviorProfile": "balanced"})
	req := httptest.NewRequest(http.MethodPost, "/v1/agents", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, fk.registered, 1)
	assert.Equal(t, "a1", fk.registered[0].ID)
}

func TestRegisterAgentRejectsInvalidBehaviorProfile(t *testing.T) {
	fk := newFakeKernel()
	s := newTestServer(fk)

	body, _ := json.Marshal(map[string]string{"id": "a1", "wealth": "1000", "behaviorProfile": "reckless"})
	req := httptest.NewRequest(http.MethodPost, "/v1/agents", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fk.registered)
}

func TestUnregisterAgentReturns404WhenMissing(t *testing.T) {
	s := newTestServer(newFakeKernel())

	req := httptest.NewRequest(http.MethodDelete, "/v1/agents/ghost", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitActionQueuesBuy(t *testing.T) {
	fk := newFakeKernel()
	fk.agents["a1"] = kernel.AgentSnapshot{ID: "a1"}
	s := newTestServer(fk)

	body, _ := json.Marshal(map[string]string{"type": "buy", "marketId": "food", "quantity": "10"})
	req := httptest.NewRequest(http.MethodPost, "/v1/agents/a1/actions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, fk.submitted, 1)
	assert.Equal(t, agent.Buy, fk.submitted[0].Type)
}

func TestSubmitActionAllowsHoldWithoutMarketID(t *testing.T) {
	fk := newFakeKernel()
	fk.agents["a1"] = kernel.AgentSnapshot{ID: "a1"}
	s := newTestServer(fk)

	body, _ := json.Marshal(map[string]string{"type": "hold"})
	req := httptest.NewRequest(http.MethodPost, "/v1/agents/a1/actions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, fk.submitted, 1)
	assert.Equal(t, agent.Hold, fk.submitted[0].Type)
}

func TestContentTypeMiddlewareRejectsNonJSONPost(t *testing.T) {
	s := newTestServer(newFakeKernel())

	req := httptest.NewRequest(http.MethodPost, "/v1/agents", bytes.NewReader([]byte("id=a1")))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
