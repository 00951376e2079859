package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"living-economy-arena/econsim/internal/agent"
	"living-economy-arena/econsim/internal/events"
	"living-economy-arena/econsim/internal/httpapi/dto"
	"living-economy-arena/econsim/internal/kernel"
	"living-economy-arena/econsim/internal/money"
)

func fail(c *gin.Context, status int, code, message string, err error) {
	apiErr := &dto.APIError{Code: code, Message: message}
	if err != nil {
		apiErr.Details = err.Error()
	}
	c.JSON(status, dto.APIResponse{Success: false, Error: apiErr})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.APIResponse{Success: true, Data: data})
}

// statusForKernelError maps the internal/events error taxonomy onto HTTP
// status codes, the way the teacher's handlers translate a repository
// error into 404/500 by inspecting the service-layer failure.
func statusForKernelError(err error) (int, string) {
	var capErr *events.CapacityError
	var valErr *events.ValidationError
	switch {
	case errors.As(err, &capErr):
		return http.StatusServiceUnavailable, "CAPACITY_EXCEEDED"
	case errors.As(err, &valErr):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// getMarketSnapshot handles GET /v1/markets/:id/snapshot.
func (s *Server) getMarketSnapshot(c *gin.Context) {
	id := c.Param("id")
	snap, found := s.kernel.MarketByID(id)
	if !found {
		fail(c, http.StatusNotFound, "MARKET_NOT_FOUND", "market not found", nil)
		return
	}
	ok(c, http.StatusOK, marketResponseOf(snap))
}

func marketResponseOf(m kernel.MarketSnapshot) dto.MarketSnapshotResponse {
	return dto.MarketSnapshotResponse{
		ID:           m.ID,
		Name:         m.Name,
		CurrentPrice: m.CurrentPrice,
		Supply:       m.Supply,
		Demand:       m.Demand,
		Volatility:   m.Volatility,
		Scarcity:     m.Scarcity,
		BestBid:      m.BestBid,
		BestAsk:      m.BestAsk,
		BidDepth:     m.BidDepth,
		AskDepth:     m.AskDepth,
	}
}

// getPsychology handles GET /v1/psychology.
func (s *Server) getPsychology(c *gin.Context) {
	snap := s.kernel.Snapshot()
	p := snap.Psychology
	ok(c, http.StatusOK, dto.PsychologyResponse{
		GlobalSentiment:      p.GlobalSentiment,
		FearIndex:            p.FearIndex,
		GreedIndex:           p.GreedIndex,
		ConfidenceIndex:      p.ConfidenceIndex,
		HerdingFactor:        p.HerdingFactor,
		VolatilityMultiplier: p.VolatilityMultiplier,
	})
}

// getMonetary handles GET /v1/monetary.
func (s *Server) getMonetary(c *gin.Context) {
	snap := s.kernel.Snapshot()
	m := snap.Monetary
	ok(c, http.StatusOK, dto.MonetaryResponse{
		MoneySupply:          m.MoneySupply.String(),
		Velocity:             m.Velocity.String(),
		CurrentInflationRate: m.CurrentInflationRate,
		BaseRate:             m.BaseRate.String(),
	})
}

// getScarcity handles GET /v1/scarcity/:commodityId.
func (s *Server) getScarcity(c *gin.Context) {
	id := c.Param("commodityId")
	commodity, found := s.kernel.Commodity(id)
	if !found {
		fail(c, http.StatusNotFound, "COMMODITY_NOT_FOUND", "commodity not found", nil)
		return
	}
	ok(c, http.StatusOK, dto.ScarcityResponse{
		ID:              commodity.ID,
		ScarcityLevel:   commodity.ScarcityLevel,
		PriceMultiplier: commodity.PriceMultiplier,
		CurrentReserves: commodity.CurrentReserves.String(),
		InitialReserves: commodity.InitialReserves.String(),
	})
}

// getPortfolio handles GET /v1/agents/:id/portfolio.
func (s *Server) getPortfolio(c *gin.Context) {
	id := c.Param("id")
	a, found := s.kernel.AgentByID(id)
	if !found {
		fail(c, http.StatusNotFound, "AGENT_NOT_FOUND", "agent not found", nil)
		return
	}
	ok(c, http.StatusOK, dto.PortfolioResponse{
		ID:              a.ID,
		Wealth:          a.Wealth,
		Portfolio:       a.Portfolio,
		Sentiment:       a.Sentiment,
		Fear:            a.Fear,
		Greed:           a.Greed,
		Confidence:      a.Confidence,
		BehaviorProfile: string(a.BehaviorProfile),
		IsActive:        a.IsActive,
		PendingActions:  a.PendingActions,
	})
}

// registerAgent handles POST /v1/agents.
func (s *Server) registerAgent(c *gin.Context) {
	var req dto.RegisterAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err)
		return
	}

	wealth, err := money.Parse(req.Wealth)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_WEALTH", "wealth must be a decimal string", err)
		return
	}

	a := agent.New(req.ID, wealth, agent.BehaviorProfile(req.BehaviorProfile))
	if err := s.kernel.RegisterAgent(a); err != nil {
		status, code := statusForKernelError(err)
		fail(c, status, code, "failed to register agent", err)
		return
	}

	ok(c, http.StatusCreated, dto.RegisterAgentResponse{ID: req.ID, Status: "registered", Message: "agent registered"})
}

// unregisterAgent handles DELETE /v1/agents/:id.
func (s *Server) unregisterAgent(c *gin.Context) {
	id := c.Param("id")
	if !s.kernel.UnregisterAgent(id) {
		fail(c, http.StatusNotFound, "AGENT_NOT_FOUND", "agent not found", nil)
		return
	}
	ok(c, http.StatusOK, dto.UnregisterAgentResponse{ID: id, Status: "unregistered"})
}

// submitAction handles POST /v1/agents/:id/actions.
func (s *Server) submitAction(c *gin.Context) {
	id := c.Param("id")

	var req dto.SubmitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", err)
		return
	}

	action, err := actionFromRequest(req)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ACTION", "invalid action", err)
		return
	}

	if err := s.kernel.SubmitAction(id, action); err != nil {
		status, code := statusForKernelError(err)
		fail(c, status, code, "failed to submit action", err)
		return
	}

	ok(c, http.StatusAccepted, dto.SubmitActionResponse{AgentID: id, Status: "queued"})
}

func actionFromRequest(req dto.SubmitActionRequest) (agent.Action, error) {
	switch agent.ActionType(req.Type) {
	case agent.Hold:
		return agent.NewHold(), nil
	case agent.Cancel:
		return agent.NewCancel(req.MarketID, req.OrderTag), nil
	case agent.Buy, agent.Sell:
		quantity, err := money.Parse(req.Quantity)
		if err != nil {
			return agent.Action{}, err
		}
		var priceLimit *money.Money
		if req.PriceLimit != nil {
			parsed, err := money.Parse(*req.PriceLimit)
			if err != nil {
				return agent.Action{}, err
			}
			priceLimit = &parsed
		}
		if agent.ActionType(req.Type) == agent.Buy {
			return agent.NewBuy(req.MarketID, quantity, priceLimit), nil
		}
		return agent.NewSell(req.MarketID, quantity, priceLimit), nil
	default:
		return agent.Action{}, errors.New("unknown action type")
	}
}
