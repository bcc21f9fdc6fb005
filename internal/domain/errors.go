package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPriceUnavailable matches any *PriceUnavailableError via errors.Is
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrConversionUnavailable matches any *ConversionUnavailableError via errors.Is
	ErrConversionUnavailable = errors.New("conversion unavailable")
)

// PriceUnavailableError is returned when the oracle cannot price a ticker.
// It aborts the whole rebalance run.
type PriceUnavailableError struct {
	Ticker string
	Err    error
}

func (e *PriceUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("price unavailable for %s", e.Ticker)
	}
	return fmt.Sprintf("price unavailable for %s: %v", e.Ticker, e.Err)
}

func (e *PriceUnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPriceUnavailable) match
func (e *PriceUnavailableError) Is(target error) bool { return target == ErrPriceUnavailable }

// ConversionUnavailableError is returned when a price cannot be converted between currencies
type ConversionUnavailableError struct {
	From string
	To   string
	Err  error
}

func (e *ConversionUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("conversion unavailable from %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("conversion unavailable from %s to %s: %v", e.From, e.To, e.Err)
}

func (e *ConversionUnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrConversionUnavailable) match
func (e *ConversionUnavailableError) Is(target error) bool { return target == ErrConversionUnavailable }

// IsOracleError reports whether err came from the price oracle
func IsOracleError(err error) bool {
	return errors.Is(err, ErrPriceUnavailable) || errors.Is(err, ErrConversionUnavailable)
}
