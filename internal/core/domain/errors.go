package domain

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomNotLive         = errors.New("room is not live")
	ErrGuestNotFound       = errors.New("guest not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrLedgerConflict      = errors.New("ledger transaction conflict")
	ErrUpstreamTimeout     = errors.New("upstream call timed out")
)
