package audio

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateText rejects text that would produce an empty or silent clip
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return nil
		}
	}

	return fmt.Errorf("text must contain at least one letter or digit")
}
