package lattice

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// CaseRule selects how letters are case-folded before lookup.
type CaseRule string

// Case rules.
const (
	CaseUpper    CaseRule = "upper"
	CaseLower    CaseRule = "lower"
	CasePreserve CaseRule = "preserve"
)

// WhitespaceRule selects how whitespace is treated before lookup.
type WhitespaceRule string

// Whitespace rules.
const (
	// WhitespaceCollapse folds every Unicode whitespace rune (tab, newline,
	// no-break space, ...) to the ASCII space. Runs are kept as they are
	// and nothing is trimmed, so each input rune still maps to one
	// character of the alphabet.
	WhitespaceCollapse WhitespaceRule = "collapse"
	// WhitespacePreserve leaves whitespace untouched.
	WhitespacePreserve WhitespaceRule = "preserve"
)

// Rules is the per-lattice normalization applied to input text.
// NFC composition is always applied first.
type Rules struct {
	Case       CaseRule       `json:"case" yaml:"case"`
	Whitespace WhitespaceRule `json:"whitespace" yaml:"whitespace"`
}

// DefaultRules upper-cases and folds whitespace to the ASCII space.
func DefaultRules() Rules {
	return Rules{Case: CaseUpper, Whitespace: WhitespaceCollapse}
}

// WithDefaults fills empty fields from DefaultRules.
func (r Rules) WithDefaults() Rules {
	d := DefaultRules()
	if r.Case == "" {
		r.Case = d.Case
	}
	if r.Whitespace == "" {
		r.Whitespace = d.Whitespace
	}
	return r
}

// Validate rejects unknown rule values. Empty values are allowed and
// resolve to the defaults.
func (r Rules) Validate() error {
	switch r.Case {
	case "", CaseUpper, CaseLower, CasePreserve:
	default:
		return fmt.Errorf("unknown case rule %q", r.Case)
	}
	switch r.Whitespace {
	case "", WhitespaceCollapse, WhitespacePreserve:
	default:
		return fmt.Errorf("unknown whitespace rule %q", r.Whitespace)
	}
	return nil
}

// Normalize applies the rules to s. The result is what the encoder looks
// up character by character; the decoder returns text in this form.
func (r Rules) Normalize(s string) string {
	r = r.WithDefaults()

	s = norm.NFC.String(s)

	switch r.Case {
	case CaseUpper:
		s = cases.Upper(language.Und).String(s)
	case CaseLower:
		s = cases.Lower(language.Und).String(s)
	}

	if r.Whitespace == WhitespaceCollapse {
		s = strings.Map(foldSpace, s)
	}

	// Case mapping can decompose; recompose so keys compare equal.
	return norm.NFC.String(s)
}

// isNormalizedKey reports whether k is a single rune that normalization
// leaves unchanged.
func (r Rules) isNormalizedKey(k string) bool {
	if utf8.RuneCountInString(k) != 1 {
		return false
	}
	return r.Normalize(k) == k
}

func foldSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}
