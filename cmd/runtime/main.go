package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/block-etf/internal/common"
	"github.com/hxuan190/block-etf/internal/config"
	"github.com/hxuan190/block-etf/internal/etf"
	"github.com/hxuan190/block-etf/internal/http"
)

// @title Block ETF API
// @version 1.0
// @description Basket fund on BNB Smart Chain. Deposit USDT to receive bETF shares backed by
// @description BTCB, ETH, WBNB, XRP and SOL bought at fixed target weights, redeem shares back to USDT.
// @description
// @description ## - Usage Tips
// @description - Amounts are base-unit decimal strings. USDT and bETF have 18 decimals.
// @description - Approve the router for USDT (`POST /api/v1/tokens/approve`) before depositing.
// @description - Call the preview endpoints first and pass `minShares` / `minAmount` as your floor.
// @description - Every swap leg is bounded by the router's max slippage (default 300 bps).
// @description - Send your wallet address in the `X-Wallet-Address` header on private and admin routes.
// @description - **Rate Limit**: 10 requests/second (burst: 20)
// @BasePath /
// @schemes http https
// @tag.name fund
// @tag.description Fund share token
// @tag.name router
// @tag.description Deposit, redeem and router administration
// @tag.name tokens
// @tag.description Settlement and basket token balances

func main() {
	common.InitRuntime()

	// load env
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Msg("failed to load env")
		return
	}
	setupLogger()

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.FundConfig{},
		&config.RouterConfig{},
		&config.PersistenceConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&etf.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}

func setupLogger() {
	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	env := os.Getenv("ENV")
	if env == "" || env == config.DevEnv {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
