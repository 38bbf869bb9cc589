package game

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minRoomNameLength = 2
	maxRoomNameLength = 40
	maxClueLength     = 140
	maxNameLength     = 32
)

func validateRoomName(name string) (string, error) {
	trimmed := normalizeText(name)
	if utf8.RuneCountInString(trimmed) < minRoomNameLength {
		return "", fmt.Errorf("%w: room name must be at least %d characters", ErrInvalidInput, minRoomNameLength)
	}
	return validateText("room name", trimmed, maxRoomNameLength)
}

func validateClue(clue string) (string, error) {
	return validateText("clue", clue, maxClueLength)
}

// ValidateDisplayName normalises a player display name.
func ValidateDisplayName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, label)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", fmt.Errorf("%w: %s must be %d characters or fewer", ErrInvalidInput, label, maxLen)
	}
	for _, r := range trimmed {
		if !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: %s contains unsupported characters", ErrInvalidInput, label)
		}
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
