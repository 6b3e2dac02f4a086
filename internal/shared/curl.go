package shared

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// curlFlagExpr matches -H/--header and -b/--cookie flags with a single- or double-quoted value.
var curlFlagExpr = regexp2.MustCompile(`(-H|--header|-b|--cookie)\s+(?:'([^']*)'|"([^"]*)")`, regexp2.None)

// BrowserHeaders holds the request headers copied from a signed-in YouTube Music browser session.
type BrowserHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a shell file containing a "Copy as cURL" command and extracts its headers.
func ParseCurlFile(path string) (*BrowserHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts headers and the cookie from a cURL command.
//
// A -b cookie wins over a Cookie header.
func ParseCurlCommand(data []byte) (*BrowserHeaders, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	h := &BrowserHeaders{Headers: make(map[string]string)}
	var headerCookie, flagCookie string

	m, err := curlFlagExpr.FindStringMatch(cmd)
	for ; m != nil; m, err = curlFlagExpr.FindNextMatch(m) {
		value := m.GroupByNumber(2).String()
		if value == "" {
			value = m.GroupByNumber(3).String()
		}

		switch m.GroupByNumber(1).String() {
		case "-b", "--cookie":
			if flagCookie == "" {
				flagCookie = value
			}
		default:
			key, val, ok := strings.Cut(value, ":")
			if !ok {
				continue
			}
			key, val = strings.TrimSpace(key), strings.TrimSpace(val)
			if strings.EqualFold(key, "cookie") {
				if headerCookie == "" {
					headerCookie = val
				}
				continue
			}
			h.Headers[key] = val
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	h.Cookie = flagCookie
	if h.Cookie == "" {
		h.Cookie = headerCookie
	}

	if len(h.Headers) == 0 && h.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return h, nil
}

// ToHeadersRaw renders newline-separated "Key: Value" pairs sorted by key, with the cookie last,
// as expected by the YouTube Music proxy setup endpoint.
func (h *BrowserHeaders) ToHeadersRaw() string {
	keys := make([]string, 0, len(h.Headers))
	for k := range h.Headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		lines = append(lines, k+": "+h.Headers[k])
	}
	if h.Cookie != "" {
		lines = append(lines, "cookie: "+h.Cookie)
	}
	return strings.Join(lines, "\n")
}
