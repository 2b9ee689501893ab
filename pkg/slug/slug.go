package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Option configures slug generation.
type Option func(*config)

type config struct {
	maxLength int
}

const separator = '-'

// MaxLength caps the slug length in bytes. The result never ends with a separator.
func MaxLength(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// Letters that carry no combining mark and therefore survive NFD decomposition.
var foldings = map[rune]string{
	'ß': "ss",
	'æ': "ae", 'Æ': "ae",
	'œ': "oe", 'Œ': "oe",
	'ø': "o", 'Ø': "o",
	'đ': "d", 'Đ': "d",
	'ł': "l", 'Ł': "l",
	'þ': "th", 'Þ': "th",
	'ð': "d", 'Ð': "d",
}

// Make turns s into a URL-safe slug: lower-case ASCII letters and digits,
// diacritics stripped, every other run of characters collapsed to a single
// separator, no separator at either end.
//
//	slug.Make("Café Müller") // "cafe-muller"
//
// Make is idempotent on its own output.
func Make(s string, opts ...Option) string {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	folded := stripMarks(s)

	var b strings.Builder
	b.Grow(len(folded))

	pendingSep := false
	for _, r := range folded {
		if rep, ok := foldings[r]; ok {
			for i := 0; i < len(rep); i++ {
				pendingSep = writeByte(&b, rep[i], pendingSep)
			}
			continue
		}

		r = unicode.ToLower(r)
		if r < unicode.MaxASCII && isAlnum(byte(r)) {
			pendingSep = writeByte(&b, byte(r), pendingSep)
			continue
		}
		if b.Len() > 0 {
			pendingSep = true
		}
	}

	out := b.String()
	if cfg.maxLength > 0 && len(out) > cfg.maxLength {
		out = out[:cfg.maxLength]
	}
	return strings.TrimRight(out, string(separator))
}

func writeByte(b *strings.Builder, c byte, pendingSep bool) bool {
	if pendingSep {
		b.WriteByte(separator)
	}
	b.WriteByte(c)
	return false
}

// stripMarks decomposes s and drops combining marks (é -> e, ü -> u).
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
