package service

import (
	"errors"
	"strings"
	"unicode"
)

const maxRoomNameLength = 64

func ValidateRoomName(room string) error {
	trimmed := strings.TrimSpace(room)
	if trimmed == "" {
		return errors.New("room name is required")
	}
	if trimmed != room {
		return errors.New("room name must not have surrounding whitespace")
	}
	if len(room) > maxRoomNameLength {
		return errors.New("room name too long")
	}
	for _, r := range room {
		if unicode.IsControl(r) {
			return errors.New("room name must not contain control characters")
		}
	}
	return nil
}
