package ingest

import (
	"bufio"
	"fmt"
	"net/netip"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/miekg/dns"

	"github.com/RowanDark/gstr/config"
)

// tokenizer turns raw scanner tokens into the content to intern. It returns
// false for tokens that must be skipped.
type tokenizer struct {
	split     bufio.SplitFunc
	transform func([]byte) (string, bool)
	// separator reports runes that end a token. Nil means every token
	// ends where split says it does.
	separator func(rune) bool
}

func newTokenizer(mode string) (tokenizer, error) {
	switch mode {
	case "", config.SplitLines:
		return tokenizer{split: bufio.ScanLines}, nil
	case config.SplitWords:
		return tokenizer{split: bufio.ScanWords, separator: unicode.IsSpace}, nil
	case config.SplitDomains:
		return tokenizer{split: bufio.ScanWords, transform: canonicalDomain, separator: unicode.IsSpace}, nil
	default:
		return tokenizer{}, fmt.Errorf("unsupported split mode %q", mode)
	}
}

const domainTrim = "\"'`()[]{}<>,;:!?"

// skipOversized wraps split so that a token longer than limit is dropped
// instead of ending the scan with bufio.ErrTooLong. skipped is called once
// per dropped token. limit must match the scanner's maximum token size.
func skipOversized(split bufio.SplitFunc, separator func(rune) bool, limit int, skipped func()) bufio.SplitFunc {
	discarding := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if discarding && separator != nil && len(data) > 0 {
			if r, _ := utf8.DecodeRune(data); separator(r) {
				discarding = false
			}
		}
		advance, token, err := split(data, atEOF)
		if err != nil {
			return advance, token, err
		}
		if advance == 0 && token == nil {
			if atEOF || len(data) < limit {
				return 0, nil, nil
			}
			// The buffer is full and the token has not ended yet.
			if !discarding {
				discarding = true
				skipped()
			}
			return len(data), nil, nil
		}
		if discarding && token != nil {
			// Tail of the dropped token.
			discarding = false
			return advance, nil, nil
		}
		return advance, token, nil
	}
}

// canonicalDomain keeps tokens that are valid DNS names with at least two
// labels and a top-level label of two or more characters that is not all
// digits. It returns their lower-case fully qualified form.
func canonicalDomain(token []byte) (string, bool) {
	candidate := strings.Trim(string(token), domainTrim)
	if candidate == "" || strings.ContainsAny(candidate, "@/\\=") {
		return "", false
	}
	if _, err := netip.ParseAddr(candidate); err == nil {
		return "", false
	}
	labels, ok := dns.IsDomainName(candidate)
	if !ok || labels < 2 {
		return "", false
	}
	parts := dns.SplitDomainName(candidate)
	if !validTLD(parts[len(parts)-1]) {
		return "", false
	}
	return dns.CanonicalName(candidate), true
}

func validTLD(label string) bool {
	if len(label) < 2 {
		return false
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}
