// Package carrier maps tracking numbers to carriers and carriers to scrapers.
package carrier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrPatternCollision is returned when two patterns can match the same number.
	ErrPatternCollision = errors.New("carrier pattern collision")
	// ErrInvalidPattern is returned for malformed pattern definitions.
	ErrInvalidPattern = errors.New("invalid carrier pattern")
)

var prefixRe = regexp.MustCompile(`^[A-Z]{4}$`)

// Pattern describes the container numbers issued by one carrier:
// one of Prefixes followed by exactly Digits digits.
type Pattern struct {
	Code     string
	Prefixes []string
	Digits   int
}

// Regexp compiles the pattern into an anchored expression.
func (p Pattern) Regexp() *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^(?:%s)\d{%d}$`, strings.Join(p.Prefixes, "|"), p.Digits))
}

// Patterns are checked in declaration order.
var defaultPatterns = []Pattern{
	{Code: "msc", Prefixes: []string{"MEDU", "MSCU", "MSDU", "MSMU", "MSNU"}, Digits: 7},
	{Code: "maersk", Prefixes: []string{"MAEU", "MSKU", "MRKU", "MRSU"}, Digits: 7},
	{Code: "hapag", Prefixes: []string{"HLCU", "HLXU", "HAMU"}, Digits: 7},
	{Code: "cma_cgm", Prefixes: []string{"CMAU", "CGMU", "ECMU", "APZU"}, Digits: 7},
	{Code: "cosco", Prefixes: []string{"CBHU", "CCLU", "CSNU", "COSU"}, Digits: 7},
	{Code: "evergreen", Prefixes: []string{"EGLV", "EMCU", "EGHU", "EISU", "EITU"}, Digits: 7},
	{Code: "one", Prefixes: []string{"ONEY", "ONEU"}, Digits: 7},
	{Code: "oocl", Prefixes: []string{"OOLU", "OOCU"}, Digits: 7},
	{Code: "yang_ming", Prefixes: []string{"YMLU", "YMMU"}, Digits: 7},
	{Code: "hmm", Prefixes: []string{"HDMU", "HMMU"}, Digits: 7},
	{Code: "zim", Prefixes: []string{"ZIMU", "ZCSU"}, Digits: 7},
}

// DefaultPatterns returns a copy of the built-in carrier table.
func DefaultPatterns() []Pattern {
	out := make([]Pattern, len(defaultPatterns))
	for i, p := range defaultPatterns {
		out[i] = Pattern{Code: p.Code, Prefixes: append([]string(nil), p.Prefixes...), Digits: p.Digits}
	}
	return out
}

// PatternFor returns the built-in pattern for a carrier code.
func PatternFor(code string) (Pattern, bool) {
	for _, p := range defaultPatterns {
		if p.Code == code {
			return p, true
		}
	}
	return Pattern{}, false
}

type compiledPattern struct {
	code string
	re   *regexp.Regexp
}

// Detector guesses the carrier from a container number.
type Detector struct {
	patterns []compiledPattern
}

// NewDetector validates and compiles patterns. Two patterns sharing a prefix
// with the same digit count are rejected, so declaration order never decides
// between carriers.
func NewDetector(patterns []Pattern) (*Detector, error) {
	owners := make(map[string]string)
	d := &Detector{patterns: make([]compiledPattern, 0, len(patterns))}

	for _, p := range patterns {
		if p.Code == "" || p.Digits <= 0 || len(p.Prefixes) == 0 {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidPattern, p)
		}
		for _, prefix := range p.Prefixes {
			if !prefixRe.MatchString(prefix) {
				return nil, fmt.Errorf("%w: prefix %q of %s must be 4 uppercase letters", ErrInvalidPattern, prefix, p.Code)
			}
			key := fmt.Sprintf("%s/%d", prefix, p.Digits)
			if owner, ok := owners[key]; ok {
				return nil, fmt.Errorf("%w: prefix %s with %d digits declared by %s and %s", ErrPatternCollision, prefix, p.Digits, owner, p.Code)
			}
			owners[key] = p.Code
		}
		d.patterns = append(d.patterns, compiledPattern{code: p.Code, re: p.Regexp()})
	}

	return d, nil
}

// NewDefaultDetector builds a detector from the built-in table.
func NewDefaultDetector() *Detector {
	d, err := NewDetector(defaultPatterns)
	if err != nil {
		panic(err)
	}
	return d
}

// Detect returns the carrier code for trackingNumber. It is pure and total:
// unknown formats return ("", false).
func (d *Detector) Detect(trackingNumber string) (string, bool) {
	n := strings.ToUpper(strings.TrimSpace(trackingNumber))
	for _, p := range d.patterns {
		if p.re.MatchString(n) {
			return p.code, true
		}
	}
	return "", false
}
