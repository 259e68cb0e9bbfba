package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrUnknownStat   = errors.New("unknown statistic")
	ErrSeasonUnknown = errors.New("season not in configured ordering")
)
