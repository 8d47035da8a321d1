package normalize

import (
	"regexp"
	"strings"
)

// SourceSignals is the monitoring source and signal names extracted from an
// automated report body.
type SourceSignals struct {
	Source  string
	Signals []string
}

var (
	// Emphasis underscores only count at word boundaries; snake_case
	// signal names keep their underscores.
	emphasisPattern = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	codeTickPattern = regexp.MustCompile("`([^`\n]+)`")
	emSpanPattern   = regexp.MustCompile(`<em>(.*?)</em>`)
	codeSpanPattern = regexp.MustCompile(`<code>(.*?)</code>`)
)

// MarkupFromMarkdown converts the restricted markdown dialect used by
// report bots into its HTML equivalent: `text` becomes a <code> span and
// _text_ an <em> span. Text already carrying HTML spans passes through
// unchanged.
func MarkupFromMarkdown(text string) string {
	text = codeTickPattern.ReplaceAllString(text, "<code>$1</code>")
	text = emphasisPattern.ReplaceAllString(text, "<em>$1</em>")
	return text
}

// ExtractSourceSignals pulls the monitoring source and signal names out of
// a report body. The source is the last emphasised span; each code span
// holds a "signal: description" string of which only the name before the
// first colon is kept. Returns nil unless both a source and at least one
// signal are present; signal lookup needs the pair complete.
func ExtractSourceSignals(body string) *SourceSignals {
	marked := MarkupFromMarkdown(body)

	emSpans := emSpanPattern.FindAllStringSubmatch(marked, -1)
	if len(emSpans) == 0 {
		return nil
	}
	source := strings.TrimSpace(StripMarkup(emSpans[len(emSpans)-1][1]))
	if source == "" {
		return nil
	}

	var signals []string
	for _, span := range codeSpanPattern.FindAllStringSubmatch(marked, -1) {
		name := span[1]
		if i := strings.Index(name, ":"); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(StripMarkup(name))
		if name != "" {
			signals = append(signals, name)
		}
	}
	if len(signals) == 0 {
		return nil
	}

	return &SourceSignals{Source: source, Signals: signals}
}
