package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrPaused              = errors.New("paused")
	ErrSlippageExceeded    = errors.New("slippage exceeded")
	ErrSwapFailed          = errors.New("swap failed")
	ErrDeadlineExceeded    = errors.New("deadline exceeded")
	ErrTransferFailed      = errors.New("transfer failed")

	ErrReentrantCall  = errors.New("reentrant call")
	ErrNAVUnavailable = errors.New("net asset value unavailable")

	// Parameter errors, all matching ErrInvalidParameter.
	ErrInvalidFeeTier  = fmt.Errorf("%w: invalid fee tier", ErrInvalidParameter)
	ErrSlippageTooHigh = fmt.Errorf("%w: slippage too high", ErrInvalidParameter)
	ErrInvalidBasket   = fmt.Errorf("%w: invalid basket", ErrInvalidParameter)
	ErrZeroAmount      = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidParameter)
	ErrZeroAddress     = fmt.Errorf("%w: zero address", ErrInvalidParameter)
)
