package services

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxMessageLength caps pre-acceptance questions.
const MaxMessageLength = 240

var (
	emailRe   = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	urlRe     = regexp.MustCompile(`(?i)(https?://|www\.)`)
	phoneRe   = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
	digitRe   = regexp.MustCompile(`\d`)
	contactRe = regexp.MustCompile(`(?i)(@\w+|call me|text me|dm me|reach me|contact me)`)
)

func containsPhoneLike(text string) bool {
	if len(digitRe.FindAllString(text, -1)) < 7 {
		return false
	}
	return phoneRe.MatchString(text)
}

// ValidateMessage gates contractor-to-homeowner text before acceptance:
// it rejects contact-info leakage (emails, links, phone numbers, off-platform
// contact prompts) and returns the trimmed text on success. Checks run in a
// fixed order so the first match determines the reported reason.
func ValidateMessage(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if len(trimmed) > MaxMessageLength {
		return "", fmt.Errorf("%w: message is too long (max %d characters)", ErrValidation, MaxMessageLength)
	}
	if emailRe.MatchString(trimmed) {
		return "", fmt.Errorf("%w: message cannot include email addresses before acceptance", ErrValidation)
	}
	if urlRe.MatchString(trimmed) {
		return "", fmt.Errorf("%w: message cannot include links before acceptance", ErrValidation)
	}
	if containsPhoneLike(trimmed) {
		return "", fmt.Errorf("%w: message cannot include phone numbers before acceptance", ErrValidation)
	}
	if contactRe.MatchString(trimmed) {
		return "", fmt.Errorf("%w: message cannot request off-platform contact before acceptance", ErrValidation)
	}
	return trimmed, nil
}
