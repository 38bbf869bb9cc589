package game

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const joinCodeLength = 6

// randomBytes is swapped in tests to simulate an unavailable entropy source.
var randomBytes = rand.Read

func newJoinCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, joinCodeLength)
	if _, err := randomBytes(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var playerPalette = []string{
	"#8B5CF6",
	"#EC4899",
	"#3B82F6",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#06B6D4",
	"#F97316",
}

func pickPlayerColor(index int) string {
	if index < 0 {
		index = 0
	}
	return playerPalette[index%len(playerPalette)]
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
