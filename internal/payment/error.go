package payment

import "errors"

var (
	ErrAlreadyPaid       = errors.New("order is already paid")
	ErrWatchRunning      = errors.New("payment watch is already running")
	ErrWatchNotFound     = errors.New("payment watch not found")
	ErrEmptyOrderNumber  = errors.New("order number is required")
	ErrManagerClosed     = errors.New("payment watch manager is closed")
	ErrWatchStopped      = errors.New("payment watch was stopped")
	ErrIncompleteBanking = errors.New("tracking has no bank transfer details")
)
