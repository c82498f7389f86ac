package aggregate

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	// MaxLimit bounds the page size a caller may request.
	MaxLimit = 100
)

// ParsePage reads 1-indexed page and limit query values. Empty values take the defaults;
// anything else must be a positive integer, with limit at most MaxLimit and an offset
// that fits in an int.
func ParsePage(page, limit string) (Page, error) {
	number, err := positiveInt("page", page, defaultPage)
	if err != nil {
		return Page{}, err
	}
	size, err := positiveInt("limit", limit, defaultLimit)
	if err != nil {
		return Page{}, err
	}
	if size > MaxLimit {
		return Page{}, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidArgument, MaxLimit)
	}
	result := Page{Number: number, Limit: size}
	if !result.valid() {
		return Page{}, fmt.Errorf("%w: page %d is out of range", ErrInvalidArgument, number)
	}
	return result, nil
}

func positiveInt(name, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidArgument, name)
	}
	return value, nil
}
