package pipeline

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var trackingQueryKeys = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
}

// Normalize derives the comparison key for an article. It is pure, total, and
// idempotent: malformed URLs degrade to the trimmed raw string instead of
// failing, and normalizing an already-normalized key yields the same key.
func Normalize(a Article, opts Options) CanonicalKey {
	opts = opts.withDefaults()
	return CanonicalKey{
		CanonicalURL:    canonicalizeURL(a.URL, trackingKeySet(opts)),
		NormalizedTitle: foldText(a.Title),
	}
}

func trackingKeySet(opts Options) map[string]struct{} {
	if opts.TrackingParams == nil {
		return trackingQueryKeys
	}
	set := make(map[string]struct{}, len(opts.TrackingParams))
	for _, key := range opts.TrackingParams {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

func canonicalizeURL(raw string, tracking map[string]struct{}) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return trimmed
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	if port := parsed.Port(); port != "" {
		defaultPort := (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443")
		if defaultPort {
			host = strings.TrimSuffix(host, ":"+port)
		}
	}
	parsed.Host = host

	parsed.Fragment = ""
	// Work on the decoded path and drop RawPath so String() re-encodes it
	// once, in canonical form. Touching EscapedPath here would double-encode
	// percent escapes on every pass.
	path := strings.TrimSpace(parsed.Path)
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if strings.HasSuffix(path, "/") && path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "/" {
		path = ""
	}
	parsed.Path = path
	parsed.RawPath = ""

	q := parsed.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			q.Del(key)
			continue
		}
		if _, ok := tracking[lower]; ok {
			q.Del(key)
		}
	}
	if len(q) > 0 {
		keys := make([]string, 0, len(q))
		for key := range q {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		reordered := url.Values{}
		for _, key := range keys {
			values := q[key]
			sort.Strings(values)
			for _, value := range values {
				reordered.Add(key, value)
			}
		}
		parsed.RawQuery = reordered.Encode()
	} else {
		parsed.RawQuery = ""
	}

	return parsed.String()
}

// normalizeText lowercases, strips control runes, and collapses whitespace.
// Punctuation and accents survive; this is the body normalization used for
// fingerprinting.
func normalizeText(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// foldText is the aggressive normalization used for titles and keyword
// matching: lowercase, accents stripped, punctuation and symbols collapsed to
// single spaces. "Banco Central sube tasa a 5,5%" and "banco central sube
// tasa a 5.5%" fold to the same string.
func foldText(input string) string {
	folded := stripDiacritics(strings.ToLower(strings.TrimSpace(input)))
	if folded == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func stripDiacritics(input string) string {
	decomposed := norm.NFD.String(input)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func tokenize(text string) []string {
	normalized := foldText(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

func tokenSet(text string) map[string]struct{} {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func trigramSet(text string) map[string]struct{} {
	normalized := foldText(text)
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	if len(runes) < 3 {
		return map[string]struct{}{string(runes): {}}
	}

	set := make(map[string]struct{}, len(runes)-2)
	for i := 0; i <= len(runes)-3; i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

func countTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(strings.Fields(text))
}
