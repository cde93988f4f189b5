package handlers

import (
	"strconv"
	"strings"
)

func parseID(value string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}
