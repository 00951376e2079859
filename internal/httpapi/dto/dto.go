// Package dto holds the request/response envelopes internal/httpapi binds
// and serializes, grounded on the teacher's internal/api/dto package: a
// single APIResponse/APIError envelope shared by every handler, and one
// request struct per write endpoint carrying Gin binding tags; checks the
// tags can't express (action-type-dependent fields, decimal parsing) are
// done in handlers.go after binding.
package dto

// APIResponse is the consistent response envelope every handler returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries machine-readable and human-readable failure detail.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RegisterAgentRequest is the body of POST /v1/agents.
type RegisterAgentRequest struct {
	ID              string `json:"id" binding:"required,min=1,max=64"`
	Wealth          string `json:"wealth" binding:"required"`
	BehaviorProfile string `json:"behaviorProfile" binding:"required,oneof=conservative balanced aggressive"`
}

// SubmitActionRequest is the body of POST /v1/agents/{id}/actions.
type SubmitActionRequest struct {
	Type       string  `json:"type" binding:"required,oneof=buy sell cancel hold"`
	MarketID   string  `json:"marketId" binding:"required_unless=Type hold"`
	Quantity   string  `json:"quantity"`
	PriceLimit *string `json:"priceLimit"`
	OrderTag   string  `json:"orderTag"`
}

// MarketSnapshotResponse mirrors kernel.MarketSnapshot over the wire.
type MarketSnapshotResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	CurrentPrice string  `json:"currentPrice"`
	Supply       string  `json:"supply"`
	Demand       string  `json:"demand"`
	Volatility   float64 `json:"volatility"`
	Scarcity     float64 `json:"scarcity"`
	BestBid      string  `json:"bestBid,omitempty"`
	BestAsk      string  `json:"bestAsk,omitempty"`
	BidDepth     string  `json:"bidDepth"`
	AskDepth     string  `json:"askDepth"`
}

// PsychologyResponse mirrors psychology.State over the wire.
type PsychologyResponse struct {
	GlobalSentiment      float64 `json:"globalSentiment"`
	FearIndex            float64 `json:"fearIndex"`
	GreedIndex           float64 `json:"greedIndex"`
	ConfidenceIndex      float64 `json:"confidenceIndex"`
	HerdingFactor        float64 `json:"herdingFactor"`
	VolatilityMultiplier float64 `json:"volatilityMultiplier"`
}

// MonetaryResponse mirrors monetary.State over the wire.
type MonetaryResponse struct {
	MoneySupply          string  `json:"moneySupply"`
	Velocity             string  `json:"velocity"`
	CurrentInflationRate float64 `json:"currentInflationRate"`
	BaseRate             string  `json:"baseRate"`
}

// ScarcityResponse mirrors kernel.CommoditySnapshot over the wire.
type ScarcityResponse struct {
	ID              string  `json:"id"`
	ScarcityLevel   float64 `json:"scarcityLevel"`
	PriceMultiplier float64 `json:"priceMultiplier"`
	CurrentReserves string  `json:"currentReserves"`
	InitialReserves string  `json:"initialReserves"`
}

// PortfolioResponse mirrors kernel.AgentSnapshot over the wire.
type PortfolioResponse struct {
	ID              string            `json:"id"`
	Wealth          string            `json:"wealth"`
	Portfolio       map[string]string `json:"portfolio"`
	Sentiment       float64           `json:"sentiment"`
	Fear            float64           `json:"fear"`
	Greed           float64           `json:"greed"`
	Confidence      float64           `json:"confidence"`
	BehaviorProfile string            `json:"behaviorProfile"`
	IsActive        bool              `json:"isActive"`
	PendingActions  int               `json:"pendingActions"`
}

// RegisterAgentResponse acknowledges a successful POST /v1/agents.
type RegisterAgentResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SubmitActionResponse acknowledges a successful action submission.
type SubmitActionResponse struct {
	AgentID string `json:"agentId"`
	Status  string `json:"status"`
}

// UnregisterAgentResponse acknowledges a successful DELETE /v1/agents/{id}.
type UnregisterAgentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
