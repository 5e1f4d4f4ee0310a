package router

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/block-etf/internal/domain"
	"github.com/hxuan190/block-etf/internal/metrics"
)

// SetAssetConfig updates the venue an asset trades through. The registry is owned
// by the router account, so the router forwards the call under its own address.
func (r *Router) SetAssetConfig(ctx context.Context, caller, asset common.Address, useV3 bool, fee uint32) error {
	err := r.chain.Call(ctx, func(ctx context.Context) error {
		if err := r.requireOwner(caller); err != nil {
			return err
		}
		return r.registry.SetAssetConfig(ctx, r.address, asset, useV3, fee)
	})
	r.audit("set_asset_config", err, func() {
		r.logger.Info().Str("asset", asset.Hex()).Bool("use_v3", useV3).Uint32("fee", fee).Msg("[Router] asset config updated")
	})
	return err
}

// SetMaxSlippage accepts 0..1000 bps.
func (r *Router) SetMaxSlippage(ctx context.Context, caller common.Address, bps uint16) error {
	err := r.chain.Call(ctx, func(ctx context.Context) error {
		if err := r.requireOwner(caller); err != nil {
			return err
		}
		if bps > MaxSlippageCapBps {
			return fmt.Errorf("%w: %d bps exceeds %d", domain.ErrSlippageTooHigh, bps, MaxSlippageCapBps)
		}
		r.mu.Lock()
		prev := r.maxSlippageBps
		r.maxSlippageBps = bps
		r.mu.Unlock()
		return r.chain.Record(ctx, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.maxSlippageBps = prev
		})
	})
	r.audit("set_max_slippage", err, func() {
		r.logger.Info().Uint16("bps", bps).Msg("[Router] max slippage updated")
	})
	return err
}

func (r *Router) SetPaused(ctx context.Context, caller common.Address, paused bool) error {
	err := r.chain.Call(ctx, func(ctx context.Context) error {
		if err := r.requireOwner(caller); err != nil {
			return err
		}
		r.mu.Lock()
		prev := r.paused
		r.paused = paused
		r.mu.Unlock()
		return r.chain.Record(ctx, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.paused = prev
		})
	})
	r.audit("set_paused", err, func() {
		r.logger.Info().Bool("paused", paused).Msg("[Router] pause flag updated")
	})
	return err
}

func (r *Router) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	err := r.chain.Call(ctx, func(ctx context.Context) error {
		if err := r.requireOwner(caller); err != nil {
			return err
		}
		if newOwner == (common.Address{}) {
			return fmt.Errorf("transfer ownership: %w", domain.ErrZeroAddress)
		}
		r.mu.Lock()
		prev := r.owner
		r.owner = newOwner
		r.mu.Unlock()
		return r.chain.Record(ctx, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.owner = prev
		})
	})
	r.audit("transfer_ownership", err, func() {
		r.logger.Info().Str("from", caller.Hex()).Str("to", newOwner.Hex()).Msg("[Router] ownership transferred")
	})
	return err
}

func (r *Router) audit(action string, err error, onSuccess func()) {
	metrics.AdminActions.WithLabelValues(action, metrics.Status(err)).Inc()
	if err != nil {
		r.logger.Warn().Err(err).Str("action", action).Msg("[Router] admin call rejected")
		return
	}
	onSuccess()
}

// AdminState is the persisted form of the router's owner-controlled state.
type AdminState struct {
	Owner          common.Address `json:"owner"`
	MaxSlippageBps uint16         `json:"maxSlippageBps"`
	Paused         bool           `json:"paused"`
}

func (r *Router) Snapshot() AdminState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return AdminState{Owner: r.owner, MaxSlippageBps: r.maxSlippageBps, Paused: r.paused}
}

func (r *Router) Restore(s AdminState) error {
	if s.Owner == (common.Address{}) {
		return fmt.Errorf("restore router: %w", domain.ErrZeroAddress)
	}
	if s.MaxSlippageBps > MaxSlippageCapBps {
		return fmt.Errorf("restore router: %w", domain.ErrSlippageTooHigh)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner, r.maxSlippageBps, r.paused = s.Owner, s.MaxSlippageBps, s.Paused
	return nil
}
