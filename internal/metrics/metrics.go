package metrics

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fund metrics
	TotalSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etf_total_supply",
		Help: "Fund share total supply in whole shares",
	})

	SharesMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etf_shares_minted_total",
		Help: "Shares minted by deposits, in whole shares",
	})

	SharesBurned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etf_shares_burned_total",
		Help: "Shares burned by redemptions, in whole shares",
	})

	// Router metrics
	DepositRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etf_deposit_requests_total",
			Help: "Total number of deposit calls",
		},
		[]string{"status"},
	)

	RedeemRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etf_redeem_requests_total",
			Help: "Total number of redeem calls",
		},
		[]string{"status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etf_operation_duration_seconds",
			Help:    "Deposit and redeem duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"operation"},
	)

	SwapLegs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etf_swap_legs_total",
			Help: "Per-asset swaps executed, by venue and outcome",
		},
		[]string{"venue", "status"},
	)

	AdminActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etf_admin_actions_total",
			Help: "Owner-gated administrative calls",
		},
		[]string{"action", "status"},
	)

	// Persistence metrics
	SnapshotFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etf_snapshot_flushes_total",
			Help: "State snapshot writes to storage",
		},
		[]string{"status"},
	)

	CommittedHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etf_committed_height",
		Help: "Number of committed state-changing calls",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

var wadFloat = new(big.Float).SetFloat64(1e18)

// Units converts an 18-decimal amount into whole units for gauges.
func Units(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v.ToBig()), wadFloat).Float64()
	return f
}

func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
