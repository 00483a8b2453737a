package relay

import (
	"regexp"
	"strings"
)

// Mention placeholders the platform injects into group-message text, e.g.
// "@_user_1 hello". Trailing whitespace of a placeholder is consumed too.
var mentionPattern = regexp.MustCompile(`@_user_\d+\s*`)

// StripMentions removes at-mention placeholders from message text. Applying
// it to already-stripped text is a no-op.
func StripMentions(text string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
}
