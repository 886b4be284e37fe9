package domain

import "strings"

// Symbol is a normalized ticker identifier. Taiwan-listed codes carry a
// market suffix (".TW" main board, ".TWO" OTC); foreign codes stay bare.
type Symbol string

const defaultMarketSuffix = "TW"

// NormalizeSymbol canonicalizes a raw ticker code. A bare all-digit code
// implies the default market; an explicit suffix is upper-cased. The base
// part keeps its case. Empty input yields the empty Symbol.
func NormalizeSymbol(raw string) Symbol {
	code := strings.TrimSpace(raw)
	if code == "" {
		return ""
	}

	if idx := strings.LastIndex(code, "."); idx >= 0 {
		base := code[:idx]
		suffix := strings.ToUpper(code[idx+1:])
		if base == "" || suffix == "" {
			return Symbol(code)
		}
		return Symbol(base + "." + suffix)
	}

	if isDigits(code) {
		return Symbol(code + "." + defaultMarketSuffix)
	}
	return Symbol(code)
}

// Code returns the part before the market suffix.
func (s Symbol) Code() string {
	str := string(s)
	if idx := strings.LastIndex(str, "."); idx >= 0 {
		return str[:idx]
	}
	return str
}

// Market returns the market suffix, or "" for an unsuffixed foreign code.
func (s Symbol) Market() string {
	str := string(s)
	if idx := strings.LastIndex(str, "."); idx >= 0 {
		return str[idx+1:]
	}
	return ""
}

func (s Symbol) String() string { return string(s) }

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
