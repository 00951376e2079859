package kernel

import (
	"os"
	"strconv"
	"time"

	"living-economy-arena/econsim/internal/market"
	"living-economy-arena/econsim/internal/scarcity"
)

// Config recognizes the options spec §6 lists for the core's programmatic
// boundary, constructible directly (library use) or via LoadConfigFromEnv
// for the host binary, in the style of the teacher's internal/config/
// config.go getEnvOrDefault family, generalized from HTTP server settings
// to the kernel's own option list.
type Config struct {
	MaxAgents          uint32 // registry capacity; excess register_agent calls fail capacity_exceeded
	TickRate           uint16 // ticks/sec; 0 disables automatic ticking, exposes TickOnce
	DrainPerTick       int    // N in "pop up to N pending actions per agent" (spec §4.1 step 1)
	MaxOrdersPerMarket int    // per-market order-book cap; excess buy/sell submissions fail capacity_exceeded (spec §7), 0 disables the cap

	TickBudgetMs uint32 // soft wall-clock budget per tick (spec §5)

	BaseInflationRate float64 // initial currentInflationRate

	// Pricer constants (spec §4.2).
	DampingFactor  float64
	PriceMemory    float64
	MaxPriceChange float64

	// Synthetic liquidity-injection thresholds (spec §4.5).
	LiquidityFloorDepth  float64
	LiquidityFloorSpread float64
	SyntheticMMOrderSize float64 // per-side quantity of an injected order

	HistoryCapacity int // price-history ring size for markets that set none; monetary history is fixed at monetary.HistoryCapacity

	ScarcitySeed int64 // seeds scarcity.Engine's discovery RNG

	Commodities []scarcity.Init
	Markets     []market.Config
}

// DefaultConfig returns the spec-documented defaults, suitable as a base for
// programmatic construction.
func DefaultConfig() Config {
	return Config{
		MaxAgents:            10_000,
		TickRate:             0,
		DrainPerTick:         16,
		MaxOrdersPerMarket:   10_000,
		TickBudgetMs:         100,
		BaseInflationRate:    0,
		DampingFactor:        0.95,
		PriceMemory:          0.1,
		MaxPriceChange:       0.5,
		LiquidityFloorDepth:  10,
		LiquidityFloorSpread: 1,
		SyntheticMMOrderSize: 5,
		HistoryCapacity:      256,
		ScarcitySeed:         1,
	}
}

// LoadConfigFromEnv loads the scalar kernel options from the environment,
// falling back to DefaultConfig for anything unset. Commodities and
// Markets are programmatic-only (spec §6 describes them as structured init
// lists, not scalar options) and must be appended by the caller after load.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.MaxAgents = uint32(getIntOrDefault("ARENA_MAX_AGENTS", int(cfg.MaxAgents)))
	cfg.TickRate = uint16(getIntOrDefault("ARENA_TICK_RATE", int(cfg.TickRate)))
	cfg.DrainPerTick = getIntOrDefault("ARENA_DRAIN_PER_TICK", cfg.DrainPerTick)
	cfg.MaxOrdersPerMarket = getIntOrDefault("ARENA_MAX_ORDERS_PER_MARKET", cfg.MaxOrdersPerMarket)
	cfg.TickBudgetMs = uint32(getIntOrDefault("ARENA_TICK_BUDGET_MS", int(cfg.TickBudgetMs)))
	cfg.BaseInflationRate = getFloatOrDefault("ARENA_BASE_INFLATION_RATE", cfg.BaseInflationRate)
	cfg.DampingFactor = getFloatOrDefault("ARENA_DAMPING_FACTOR", cfg.DampingFactor)
	cfg.PriceMemory = getFloatOrDefault("ARENA_PRICE_MEMORY", cfg.PriceMemory)
	cfg.MaxPriceChange = getFloatOrDefault("ARENA_MAX_PRICE_CHANGE", cfg.MaxPriceChange)
	cfg.LiquidityFloorDepth = getFloatOrDefault("ARENA_LIQUIDITY_FLOOR_DEPTH", cfg.LiquidityFloorDepth)
	cfg.LiquidityFloorSpread = getFloatOrDefault("ARENA_LIQUIDITY_FLOOR_SPREAD", cfg.LiquidityFloorSpread)
	cfg.SyntheticMMOrderSize = getFloatOrDefault("ARENA_SYNTHETIC_MM_ORDER_SIZE", cfg.SyntheticMMOrderSize)
	cfg.HistoryCapacity = getIntOrDefault("ARENA_HISTORY_CAPACITY", cfg.HistoryCapacity)
	cfg.ScarcitySeed = int64(getIntOrDefault("ARENA_SCARCITY_SEED", int(cfg.ScarcitySeed)))

	return cfg
}

// TickInterval returns the duration between automatic ticks, or zero if
// TickRate is zero (manual tick_once mode).
func (c Config) TickInterval() time.Duration {
	if c.TickRate == 0 {
		return 0
	}
	return time.Second / time.Duration(c.TickRate)
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
