package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidOrder = errors.New("invalid order parameters")
	ErrMarketHedged = errors.New("market already hedged")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
