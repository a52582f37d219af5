package sentiment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidTicker marks a request for a symbol that cannot be analyzed.
// The HTTP layer classifies it with errors.Is instead of matching message
// substrings.
var ErrInvalidTicker = errors.New("invalid ticker")

var tickerRegexp = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// NormalizeTicker uppercases and validates a raw ticker symbol.
func NormalizeTicker(raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !tickerRegexp.MatchString(symbol) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}
	return symbol, nil
}
