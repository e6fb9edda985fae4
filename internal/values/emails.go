package values

import (
	"regexp"
	"strings"

	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
)

var (
	reAngleAddress  = regexp.MustCompile(`<([^>]+)>`)
	recipientSplits = strings.NewReplacer(",", ";", "|", ";", "\n", ";", "\r", ";")
)

// SplitEmails extracts addresses from a free-form recipients cell. Entries are
// separated by ";", ",", "|" or line breaks; "Name <addr>" keeps addr. An
// address needs an "@" followed by a domain containing ".". Duplicates are
// dropped case-insensitively, first occurrence wins.
func SplitEmails(s string) []string {
	parts := strings.Split(recipientSplits.Replace(s), ";")

	var out []string
	seen := make(map[string]struct{})
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if m := reAngleAddress.FindStringSubmatch(p); m != nil {
			p = strings.TrimSpace(m[1])
		}
		at := strings.LastIndex(p, "@")
		if at < 0 || !strings.Contains(p[at+1:], ".") {
			continue
		}
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// CollectRecipients merges the addresses of many cells, keeping first-seen
// order and dropping case-insensitive duplicates.
func CollectRecipients(cells []any) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range cells {
		if IsMissingLike(c) {
			continue
		}
		for _, addr := range SplitEmails(textnorm.Stringify(c)) {
			key := strings.ToLower(addr)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}
