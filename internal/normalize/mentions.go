package normalize

import (
	"context"
	"regexp"
	"strings"
)

// DisplayResolver resolves a platform user handle to the text shown in
// place of a mention.
type DisplayResolver interface {
	Display(ctx context.Context, handle string) string
}

var mentionPattern = regexp.MustCompile(`<@([A-Za-z0-9]+)>`)

// ResolveMentions replaces every <@HANDLE> reference in text with the
// resolved display identity. Each distinct handle is resolved once, however
// many times it appears; replacement covers all occurrences, so a second
// pass over the output is a no-op.
func ResolveMentions(ctx context.Context, text string, resolver DisplayResolver) string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text
	}

	resolved := make(map[string]string, len(matches))
	for _, match := range matches {
		handle := match[1]
		if _, ok := resolved[handle]; ok {
			continue
		}
		resolved[handle] = resolver.Display(ctx, handle)
	}

	for handle, display := range resolved {
		text = strings.ReplaceAll(text, "<@"+handle+">", display)
	}

	return text
}
