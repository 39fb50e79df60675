package usecase

import "errors"

// ErrNoData is returned when the provider has no bars for a ticker.
var ErrNoData = errors.New("no data")
