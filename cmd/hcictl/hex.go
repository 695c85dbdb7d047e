package main

import (
	"encoding/hex"
	"strings"
)

var hexNoise = strings.NewReplacer(" ", "", ":", "", "-", "", "\t", "", "\n", "")

// parseHex accepts plain, spaced or colon separated hex with an optional 0x.
func parseHex(s string) ([]byte, error) {
	s = hexNoise.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}

func formatHex(b []byte) string {
	return hex.EncodeToString(b)
}
