package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion resolves numbers written without a country code.
const defaultRegion = "GB"

var (
	slugRe = regexp.MustCompile(`[^a-z0-9]+`)
	hhmmRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// NormalizeE164 accepts common human input ("+44 7700-900 123", "0044...",
// "07700 900123", "whatsapp:+44...") and returns the bare E.164 form.
// Numbers without a country code are read as UK numbers.
func NormalizeE164(raw string) (string, error) {
	in := strings.TrimSpace(raw)
	num, err := phonenumbers.Parse(strings.TrimPrefix(in, "whatsapp:"), defaultRegion)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", fmt.Errorf("%w: %q is not a phone number", ErrValidation, in)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// SafeText trims s and cuts it to max runes, marking the cut with "…".
func SafeText(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

func Slugify(s string) string {
	out := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(out, "-")
}

func validHHMM(s string) bool {
	return hhmmRe.MatchString(s)
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func optionalText(s *string, max int) *string {
	if s == nil {
		return nil
	}
	v := SafeText(*s, max)
	if v == "" {
		return nil
	}
	return &v
}

// optionalURL drops empty values and rejects anything that is not http(s).
func optionalURL(field string, s *string, max int) (*string, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if !validHTTPURL(v) {
		return nil, fmt.Errorf("%w: %s must be an http(s) URL", ErrValidation, field)
	}
	if utf8.RuneCountInString(v) > max {
		return nil, fmt.Errorf("%w: %s is longer than %d characters", ErrValidation, field, max)
	}
	return &v, nil
}

// normalizeTags lowercases, trims and de-duplicates, keeping first-seen order.
func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
