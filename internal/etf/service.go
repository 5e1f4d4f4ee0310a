package etf

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/block-etf/internal/adapters/persistence"
	"github.com/hxuan190/block-etf/internal/config"
	"github.com/hxuan190/block-etf/internal/metrics"
	"github.com/hxuan190/block-etf/internal/services"
	"github.com/hxuan190/block-etf/internal/services/chain"
)

const ETF_SERVICE = "etf-service"

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	general     *config.GeneralConfig
	fundConf    *config.FundConfig
	routerConf  *config.RouterConfig
	persistConf *config.PersistenceConfig

	fund    *Fund
	storage *persistence.Storage

	dirty atomic.Bool
	done  chan struct{}
	wg    sync.WaitGroup
}

func (svc *Service) ID() string {
	return ETF_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.general = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	svc.fundConf = c.GetConfig(config.FUND_CONFIG_KEY).(*config.FundConfig)
	svc.routerConf = c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	svc.persistConf = c.GetConfig(config.PERSISTENCE_CONFIG_KEY).(*config.PersistenceConfig)
	if svc.fundConf == nil || svc.routerConf == nil || svc.persistConf == nil {
		return errors.New("etf service: missing config")
	}

	ch := chain.New()
	ch.OnCommit(svc.onCommit)

	var err error
	svc.fund, err = Deploy(context.Background(), ch, ParamsFromConfig(svc.fundConf, svc.routerConf))
	if err != nil {
		return err
	}

	if svc.persistConf.Enabled {
		svc.storage, err = persistence.NewStorage(svc.persistConf.DBPath)
		if err != nil {
			return err
		}
	}
	svc.done = make(chan struct{})
	svc.logger = svc.logger.With("fund", svc.fund.Symbol())

	svc.logger.Info().
		Str("ledger", svc.fund.Ledger.Address().Hex()).
		Str("router", svc.fund.Router.Address().Hex()).
		Str("owner", svc.fund.Deployer().Hex()).
		Int("assets", len(svc.fundConf.Basket)).
		Msg("[EtfService] fund deployed")
	return nil
}

func (svc *Service) Start() error {
	restored := false
	if svc.storage != nil {
		restored = svc.loadFromStorage()
	}

	if !restored && svc.routerConf.SeedLiquidity {
		if err := svc.fund.SeedLiquidity(context.Background()); err != nil {
			return err
		}
		svc.logger.Info().Int("assets", len(svc.fundConf.Basket)).Msg("[EtfService] seeded venue liquidity")
	}
	svc.updateGauges(svc.fund.Chain.Height())

	if svc.storage != nil {
		svc.wg.Add(1)
		go svc.processPersistence()
	}
	return nil
}

func (svc *Service) Stop() error {
	close(svc.done)
	svc.wg.Wait()

	if svc.storage != nil {
		svc.logger.Info().Uint64("height", svc.fund.Chain.Height()).Msg("[EtfService] persisting state before shutdown")
		if err := svc.flush(); err != nil {
			svc.logger.Error().Err(err).Msg("[EtfService] failed to persist state on shutdown")
		}
		if err := svc.storage.Close(); err != nil {
			svc.logger.Error().Err(err).Msg("[EtfService] failed to close storage")
		}
	}
	return nil
}

func (svc *Service) Fund() *Fund {
	return svc.fund
}

func (svc *Service) FaucetEnabled() bool {
	return svc.routerConf.FaucetEnabled || svc.general.IsDev()
}

func (svc *Service) loadFromStorage() bool {
	st, err := svc.storage.LoadState()
	if err != nil {
		svc.logger.Error().Err(err).Msg("[EtfService] failed to load state from storage")
		return false
	}
	if st == nil {
		svc.logger.Info().Msg("[EtfService] no persisted state found, starting fresh")
		return false
	}
	if err := svc.fund.Restore(st); err != nil {
		svc.logger.Error().Err(err).Msg("[EtfService] failed to restore persisted state")
		return false
	}
	svc.logger.Info().Uint64("height", st.Height).Msg("[EtfService] restored state from storage")
	return true
}

func (svc *Service) onCommit(height uint64) {
	svc.dirty.Store(true)
	metrics.CommittedHeight.Set(float64(height))
}

func (svc *Service) updateGauges(height uint64) {
	metrics.CommittedHeight.Set(float64(height))
	metrics.TotalSupply.Set(metrics.Units(svc.fund.Ledger.TotalSupply()))
}

func (svc *Service) processPersistence() {
	defer svc.wg.Done()
	ticker := time.NewTicker(time.Duration(svc.persistConf.FlushInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-svc.done:
			return
		case <-ticker.C:
			if !svc.dirty.Swap(false) {
				continue
			}
			if err := svc.flush(); err != nil {
				svc.logger.Error().Err(err).Msg("[EtfService] failed to persist state")
				svc.dirty.Store(true)
			}
		}
	}
}

func (svc *Service) flush() error {
	st := svc.fund.Capture()
	err := svc.storage.SaveState(st)
	metrics.SnapshotFlushes.WithLabelValues(metrics.Status(err)).Inc()
	if err == nil {
		svc.logger.Debug().Uint64("height", st.Height).Msg("[EtfService] persisted state to storage")
	}
	return err
}

// ParamsFromConfig builds deployment parameters from the loaded configs.
func ParamsFromConfig(fund *config.FundConfig, rc *config.RouterConfig) Params {
	return Params{
		Deployer:       fund.Deployer,
		Name:           fund.Name,
		Symbol:         fund.Symbol,
		Basket:         fund.Basket,
		Routes:         fund.Routes,
		Decimals:       fund.Decimals,
		Settlement:     rc.Settlement,
		MaxSlippageBps: rc.MaxSlippageBps,
		SwapWindow:     rc.SwapWindow,
		V2Address:      rc.V2Router,
		V3Address:      rc.V3Router,
		V2FeeBps:       rc.V2FeeBps,
	}
}
