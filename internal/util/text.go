package util

import (
	"regexp"
	"strings"
)

// handlePattern matches @handles embedded in comment and message bodies.
// A handle starts after whitespace or the start of the text, never inside
// an email address, and is made of letters, digits, underscores and dots.
var handlePattern = regexp.MustCompile(`(?:^|\s)@([A-Za-z0-9_][A-Za-z0-9_.]*)`)

// Registration enforces 3-30 character usernames; anything outside that
// range cannot name a member, so it is not a mention.
const (
	minHandleLen = 3
	maxHandleLen = 30
)

// ExtractMentions returns the distinct usernames @-mentioned in content,
// lowercased, in order of first appearance. Trailing sentence punctuation
// is not part of the handle ("thanks @drummer_girl!" mentions drummer_girl).
func ExtractMentions(content string) []string {
	var mentions []string
	seen := make(map[string]struct{})

	for _, match := range handlePattern.FindAllStringSubmatch(content, -1) {
		handle := strings.ToLower(strings.TrimRight(match[1], "."))
		if len(handle) < minHandleLen || len(handle) > maxHandleLen {
			continue
		}
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}
		mentions = append(mentions, handle)
	}
	return mentions
}
