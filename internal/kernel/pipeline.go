package kernel

import (
	"fmt"
	"time"

	"living-economy-arena/econsim/internal/agent"
	"living-economy-arena/econsim/internal/events"
	"living-economy-arena/econsim/internal/market"
	"living-economy-arena/econsim/internal/monetary"
	"living-economy-arena/econsim/internal/money"
	"living-economy-arena/econsim/internal/pricer"
	"living-economy-arena/econsim/internal/psychology"
)

// runTick executes spec §4.1's seven-step pipeline. The caller must already
// hold k.mu.
func (k *Kernel) runTick() {
	start := time.Now()
	k.tick++
	tick := k.tick

	ordersDrained, tradesExecuted, marketFaults := k.drainAndMatch(tick)
	k.reprice(tick)
	k.aggregatePsychology(tick)
	k.updateMonetary(tick)
	k.updateScarcity(tick)
	k.injectLiquidityIfNeeded(tick)

	elapsed := time.Since(start)
	k.perf.Record(elapsed)

	budget := time.Duration(k.cfg.TickBudgetMs) * time.Millisecond
	if budget > 0 && elapsed > budget {
		k.logger.Warn("tick exceeded budget", "tick", tick, "budget_ms", k.cfg.TickBudgetMs, "elapsed_ms", elapsed.Milliseconds())
		k.bus.Publish(events.KindTickOverrun, tick, events.TickOverrunEvent{
			Tick:        tick,
			BudgetMs:    int(k.cfg.TickBudgetMs),
			ElapsedMs:   float64(elapsed.Microseconds()) / 1000.0,
			SkippedFrom: "none", // every step above already ran; overrun is reported, not prevented
		})
	}

	k.bus.Publish(events.KindTick, tick, events.TickEvent{
		Tick:           tick,
		ProcessingTime: elapsed,
		OrdersDrained:  ordersDrained,
		TradesExecuted: tradesExecuted,
		RejectedCount:  int(k.rejectCount),
		MarketFaults:   marketFaults,
	})
}

// drainAndMatch is pipeline step 1-2: pop up to DrainPerTick pending actions
// per active agent, translate each into an order-book mutation, then run
// the crossing loop for every market. A panicking market is isolated via
// Checkpoint/Restore (spec §4.1 failure policy) and reported as a
// MarketFaultEvent; the rest of the tick proceeds unaffected.
func (k *Kernel) drainAndMatch(tick uint64) (ordersDrained, tradesExecuted, marketFaults int) {
	for _, ag := range k.agents.Active() {
		actions := ag.Drain(k.drainPerTick())
		for _, a := range actions {
			if k.applyAction(tick, ag, a) {
				ordersDrained++
			} else {
				k.rejectCount++
			}
		}
	}

	for _, id := range k.marketOrder {
		m := k.markets[id]
		n, faulted := k.matchMarket(m, tick)
		tradesExecuted += n
		if faulted {
			marketFaults++
		}
	}
	return
}

func (k *Kernel) drainPerTick() int {
	if k.cfg.DrainPerTick <= 0 {
		return agent.DefaultDrainPerTick
	}
	return k.cfg.DrainPerTick
}

// applyAction translates one agent action into a Book mutation. Reports
// whether the action was accepted (false counts against rejectCount).
func (k *Kernel) applyAction(tick uint64, ag *agent.Agent, a agent.Action) bool {
	if a.Type == agent.Hold {
		return true
	}

	m, ok := k.markets[a.MarketID]
	if !ok {
		return false
	}

	switch a.Type {
	case agent.Cancel:
		return m.Book.Cancel(a.OrderTag)

	case agent.Buy, agent.Sell:
		side := market.Buy
		if a.Type == agent.Sell {
			side = market.Sell
		}
		if !a.Quantity.IsPositive() {
			return false
		}
		if a.Type == agent.Sell && !ag.CanDeliver(a.MarketID, a.Quantity) {
			return false
		}
		if a.Type == agent.Buy {
			estimate := m.CurrentPrice
			if a.PriceLimit != nil {
				estimate = *a.PriceLimit
			}
			if !ag.CanAfford(estimate.Mul(a.Quantity)) {
				return false
			}
		}

		id := k.nextOrderID()
		now := time.Now()
		var (
			o   *market.Order
			err error
		)
		if a.PriceLimit != nil {
			o, err = market.NewLimitOrder(id, ag.ID, a.MarketID, side, *a.PriceLimit, a.Quantity, now)
		} else {
			o, err = market.NewMarketOrder(id, ag.ID, a.MarketID, side, a.Quantity, now)
		}
		if err != nil {
			return false
		}
		m.Book.Insert(o)
		return true

	default:
		return false
	}
}

// matchMarket runs the Book's crossing loop for one market, publishing a
// TradeEvent per fill, and rolling the market back to its state just before
// matching if the matcher panics or the book fails CheckInvariants. The
// checkpoint is taken after drainAndMatch has inserted this tick's orders,
// so those orders stay in the book after a rollback.
func (k *Kernel) matchMarket(m *market.Market, tick uint64) (trades int, faulted bool) {
	var restore func()
	defer func() {
		if r := recover(); r != nil {
			if restore != nil {
				restore()
			}
			faulted = true
			k.logger.Error("market matcher panicked, rolling back to pre-match state", "market", m.ID, "tick", tick, "panic", r)
			k.bus.Publish(events.KindMarketFault, tick, events.MarketFaultEvent{
				MarketID: m.ID,
				Tick:     tick,
				Reason:   fmt.Sprintf("%v", r),
			})
		}
	}()

	checkpoint := m.Checkpoint()
	restore = func() { m.Restore(checkpoint) }

	fills := m.Book.Match(m.ID, tick, m.CurrentPrice, time.Now)
	executed := 0
	for _, tr := range fills {
		if !k.settleTrade(m, tr) {
			k.rejectCount++
			m.Book.Cancel(tr.BuyOrder)
			m.Book.Cancel(tr.SellOrder)
			continue
		}
		executed++
		k.bus.Publish(events.KindTrade, tick, events.TradeEvent{
			MarketID: tr.MarketID,
			BuyerID:  tr.BuyerID,
			SellerID: tr.SellerID,
			Price:    tr.Price.String(),
			Quantity: tr.Quantity.String(),
			Tick:     tick,
		})
	}

	if err := m.CheckInvariants(); err != nil {
		restore()
		faulted = true
		k.logger.Error("market invariant violated, rolling back to pre-match state", "market", m.ID, "tick", tick, "error", err)
		k.bus.Publish(events.KindMarketFault, tick, events.MarketFaultEvent{
			MarketID: m.ID,
			Tick:     tick,
			Reason:   err.Error(),
		})
		return 0, true
	}

	return executed, false
}

// settleTrade folds one matched trade into the buyer/seller agents'
// portfolios and the market's running supply/demand (spec §4.3: each fill
// consumes from supply, adds to demand satisfied), after checking spec
// §4.1 step 2's floor: a buyer who can't afford the fill or a seller who
// doesn't hold enough quantity gets the trade rejected instead of settled.
// Reports whether the trade was applied.
func (k *Kernel) settleTrade(m *market.Market, tr market.Trade) bool {
	cost := tr.Price.Mul(tr.Quantity)

	buyer, buyerOK := k.agents.Get(tr.BuyerID)
	if buyerOK && !buyer.CanAfford(cost) {
		return false
	}
	seller, sellerOK := k.agents.Get(tr.SellerID)
	if sellerOK && !seller.CanDeliver(m.ID, tr.Quantity) {
		return false
	}

	if buyerOK {
		buyer.AdjustPosition(m.ID, tr.Quantity, cost)
	}
	if sellerOK {
		seller.AdjustPosition(m.ID, tr.Quantity.Neg(), cost.Neg())
	}

	m.Supply = m.Supply.Sub(tr.Quantity).Max(money.Zero)
	m.Demand = m.Demand.Add(tr.Quantity)
	return true
}

// reprice is pipeline step 3: run the Supply-Demand Pricer for every market
// and record the new price into history.
func (k *Kernel) reprice(tick uint64) {
	for _, id := range k.marketOrder {
		m := k.markets[id]
		oldPrice := m.CurrentPrice

		result := pricer.Update(m.Supply, m.Demand, m.CurrentPrice, m.Elasticity, k.pricerParams)
		m.RecordTick(result.NewPrice, money.Zero, time.Now())

		if !result.NewPrice.Equal(oldPrice) {
			k.bus.Publish(events.KindPriceUpdate, tick, events.PriceUpdateEvent{
				MarketID:     m.ID,
				OldPrice:     oldPrice.String(),
				NewPrice:     result.NewPrice.String(),
				Ratio:        result.Ratio,
				DampedAdjust: result.DampedAdjustment,
			})
		}
	}
}

// aggregatePsychology is pipeline step 4: fold every active agent's mood
// into the global Psychology State, then push volatilityMultiplier into
// every market's [0,1]-bounded Volatility field by normalizing the
// multiplier's [0.5,3.0] range back down.
func (k *Kernel) aggregatePsychology(tick uint64) {
	active := k.agents.Active()
	samples := make([]psychology.AgentSample, len(active))
	for i, ag := range active {
		samples[i] = psychology.AgentSample{
			Sentiment:  ag.Sentiment,
			Fear:       ag.Fear,
			Greed:      ag.Greed,
			Confidence: ag.Confidence,
		}
	}

	state := k.psych.Aggregate(samples)

	normalizedVolatility := state.VolatilityMultiplier / 3.0
	if normalizedVolatility > 1 {
		normalizedVolatility = 1
	}
	for _, id := range k.marketOrder {
		k.markets[id].Volatility = normalizedVolatility
	}

	k.bus.Publish(events.KindPsychology, tick, events.PsychologyEvent{
		GlobalSentiment:      state.GlobalSentiment,
		FearIndex:            state.FearIndex,
		GreedIndex:           state.GreedIndex,
		ConfidenceIndex:      state.ConfidenceIndex,
		HerdingFactor:        state.HerdingFactor,
		VolatilityMultiplier: state.VolatilityMultiplier,
	})
}

// updateMonetary is pipeline step 5. qeDelta is always money.Zero: spec
// §4.6 treats policy triggers as informational events the kernel emits, not
// a feedback loop that mutates the money supply on its own.
func (k *Kernel) updateMonetary(tick uint64) {
	var spending, saving, investment, borrowing money.Money = money.Zero, money.Zero, money.Zero, money.Zero
	for _, ag := range k.agents.Active() {
		spending = spending.Add(ag.EconomicBehavior.Spending)
		saving = saving.Add(ag.EconomicBehavior.Saving)
		investment = investment.Add(ag.EconomicBehavior.Investment)
		borrowing = borrowing.Add(ag.EconomicBehavior.Borrowing)
	}

	triggers := k.monetary.Update(tick, monetary.AgentAggregate{
		Spending:   spending,
		Saving:     saving,
		Investment: investment,
		Borrowing:  borrowing,
	}, money.Zero)

	state := k.monetary.State()
	for _, trig := range triggers {
		k.bus.Publish(events.KindMonetaryPolicy, tick, events.MonetaryPolicyEvent{
			Trigger:       string(trig),
			InflationRate: state.CurrentInflationRate,
			MoneySupply:   state.MoneySupply.String(),
			Velocity:      state.Velocity.String(),
		})
	}
}

// updateScarcity is pipeline step 6: consume reserves for every tracked
// commodity and copy its scarcityLevel into the Scarcity field of any market
// sharing its id. Neither that field nor the commodity's priceMultiplier
// enters the pricer's price update.
func (k *Kernel) updateScarcity(tick uint64) {
	for _, res := range k.scarcity.Tick() {
		if m, ok := k.markets[res.Commodity.ID]; ok {
			m.Scarcity = res.Commodity.ScarcityLevel
		}

		if res.ScarcityLevelChanged {
			k.bus.Publish(events.KindScarcity, tick, events.ScarcityEvent{
				CommodityID:     res.Commodity.ID,
				ScarcityLevel:   res.Commodity.ScarcityLevel,
				PriceMultiplier: res.Commodity.PriceMultiplier,
				CurrentReserves: res.Commodity.CurrentReserves.String(),
			})
		}
		if res.CrossedCritical {
			k.bus.Publish(events.KindCriticalScarcity, tick, events.CriticalScarcityEvent{
				CommodityID: res.Commodity.ID,
				Reserves:    res.Commodity.CurrentReserves.String(),
				Threshold:   res.Commodity.CriticalThreshold.String(),
			})
		}
	}
}

// injectLiquidityIfNeeded is pipeline step 7: for every market whose book
// depth/spread has fallen below the configured floor, insert a pair of
// synthetic_mm orders straddling the current price (spec §4.5), after first
// sweeping any stale synthetic orders from the prior tick.
func (k *Kernel) injectLiquidityIfNeeded(tick uint64) {
	thresholds := psychology.Thresholds{
		FloorDepth:  k.cfg.LiquidityFloorDepth,
		FloorSpread: k.cfg.LiquidityFloorSpread,
	}

	for _, id := range k.marketOrder {
		m := k.markets[id]

		depth := m.Book.BidDepth().Float64()
		askDepth := m.Book.AskDepth().Float64()
		spread, hasSpread := m.Book.Spread()
		spreadF := 0.0
		if hasSpread {
			spreadF = spread.Float64()
		}

		measures := psychology.LiquidityMeasures{
			Depth:        depth + askDepth,
			Spread:       spreadF,
			MarketMakers: countMarketMakers(m.Book),
		}
		if !psychology.NeedsLiquidityInjection(measures, thresholds) {
			continue
		}

		m.Book.RemoveTag(market.KindSyntheticMM)
		size := money.NewFromFloat(k.cfg.SyntheticMMOrderSize)
		now := time.Now()
		bidPrice := m.CurrentPrice.MulFloat(0.99)
		askPrice := m.CurrentPrice.MulFloat(1.01)
		m.Book.Insert(market.NewSyntheticMMOrder(k.nextOrderID(), m.ID, market.Buy, bidPrice, size, now))
		m.Book.Insert(market.NewSyntheticMMOrder(k.nextOrderID(), m.ID, market.Sell, askPrice, size, now))
	}
}

func countMarketMakers(b *market.Book) int {
	count := 0
	seen := make(map[string]bool)
	for _, o := range b.Bids {
		if o.Kind == market.KindSyntheticMM && !seen[o.ID] {
			seen[o.ID] = true
			count++
		}
	}
	for _, o := range b.Asks {
		if o.Kind == market.KindSyntheticMM && !seen[o.ID] {
			seen[o.ID] = true
			count++
		}
	}
	return count
}
