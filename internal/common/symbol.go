package common

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSymbol is returned for input that is not a ticker symbol
var ErrInvalidSymbol = errors.New("invalid symbol")

// Exchange suffixes (RELIANCE.NS), indices (^NSEI), pairs (EURUSD=X) and
// class shares (BRK-B, M&M.NS). No path separators.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9.^=&_-]{1,20}$`)

// validate carries the "ticker" tag used by ParseSymbol and Config.Validate
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(NormalizeSymbol(fl.Field().String()))
	})
	return v
}

// NormalizeSymbol trims and upper-cases a ticker symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ParseSymbol normalizes symbol and rejects anything outside the ticker
// alphabet. An empty symbol is returned as "" without error.
func ParseSymbol(symbol string) (string, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return "", nil
	}
	if err := validate.Var(symbol, "ticker"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return symbol, nil
}
