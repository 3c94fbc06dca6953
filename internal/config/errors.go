package config

import "errors"

// ErrInvalidConfig wraps every Validate failure; ErrLoadConfig wraps file and
// env provider failures.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Narrower Validate failures, joined with ErrInvalidConfig.
var (
	ErrInvalidSchedule = errors.New("invalid cron schedule")
	ErrUnknownTimezone = errors.New("unknown timezone")
	ErrUnknownDriver   = errors.New("unknown store driver")
)
