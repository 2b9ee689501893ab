package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// When applies rule only if cond holds; otherwise it always passes.
func When(cond bool, rule Rule) Rule {
	if cond {
		return rule
	}
	return Rule{Check: func() bool { return true }, Error: rule.Error}
}

// RequiredString fails for empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{
			Field:          field,
			Message:        "field is required",
			TranslationKey: "validation.required",
			Values:         map[string]any{"field": field},
		},
	}
}

// MaxLenString fails when value has more than max runes.
func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len([]rune(value)) <= max },
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be at most %d characters long", max),
			TranslationKey: "validation.max_length",
			Values:         map[string]any{"field": field, "max": max},
		},
	}
}

// ValidEmail accepts a bare RFC 5322 address whose domain contains a dot.
// Display-name forms such as "Bob <bob@example.com>" are rejected.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			v := strings.TrimSpace(value)
			addr, err := mail.ParseAddress(v)
			if err != nil || addr.Address != v {
				return false
			}
			local, domain, ok := strings.Cut(v, "@")
			if !ok || local == "" {
				return false
			}
			return strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") &&
				!strings.HasSuffix(domain, ".")
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a valid email address",
			TranslationKey: "validation.email",
			Values:         map[string]any{"field": field},
		},
	}
}

// ValidURL accepts absolute http and https URLs.
func ValidURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.Parse(strings.TrimSpace(value))
			if err != nil {
				return false
			}
			return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a valid http(s) URL",
			TranslationKey: "validation.url",
			Values:         map[string]any{"field": field},
		},
	}
}

// ValidHexColor accepts #rgb and #rrggbb.
func ValidHexColor(field, value string) Rule {
	return Rule{
		Check: func() bool { return hexColorRegex.MatchString(value) },
		Error: ValidationError{
			Field:          field,
			Message:        "must be a hex color like #1E40AF",
			TranslationKey: "validation.hex_color",
			Values:         map[string]any{"field": field},
		},
	}
}

// RequiredSlice fails for nil or empty slices.
func RequiredSlice[T any](field string, value []T) Rule {
	return Rule{
		Check: func() bool { return len(value) > 0 },
		Error: ValidationError{
			Field:          field,
			Message:        "field is required",
			TranslationKey: "validation.required",
			Values:         map[string]any{"field": field},
		},
	}
}

// NoBlankItems fails when any element is empty after trimming.
func NoBlankItems(field string, value []string) Rule {
	return Rule{
		Check: func() bool {
			for _, v := range value {
				if strings.TrimSpace(v) == "" {
					return false
				}
			}
			return true
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must not contain empty values",
			TranslationKey: "validation.no_blank_items",
			Values:         map[string]any{"field": field},
		},
	}
}

// NonNegative fails for values below zero.
func NonNegative[T ~int | ~int32 | ~int64](field string, value T) Rule {
	return Rule{
		Check: func() bool { return value >= 0 },
		Error: ValidationError{
			Field:          field,
			Message:        "must not be negative",
			TranslationKey: "validation.non_negative",
			Values:         map[string]any{"field": field},
		},
	}
}

// InList fails unless value is one of allowed.
func InList[T comparable](field string, value T, allowed []T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be one of: %v", allowed),
			TranslationKey: "validation.in_list",
			Values:         map[string]any{"field": field, "allowed_values": allowed},
		},
	}
}
