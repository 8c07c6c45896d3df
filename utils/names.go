package utils

import (
	"strings"

	"golang.org/x/text/width"
)

// NormalizeBlockName folds full-width characters, trims spaces and upper-cases a land
// block name, so "ａ１ " becomes "A1".
func NormalizeBlockName(name string) string {
	return strings.ToUpper(strings.TrimSpace(width.Narrow.String(name)))
}

// NormalizeDeviceName normalizes a soil hardness meter name the same way, e.g.
// "dik-5531" becomes "DIK-5531".
func NormalizeDeviceName(name string) string {
	return strings.ToUpper(strings.TrimSpace(width.Narrow.String(name)))
}
