// Package speech is the presentation sink boundary: speaking sentences and
// rendering the few markup-bearing content fields. Speech is best-effort by
// contract; a sink that cannot speak degrades silently.
package speech

import (
	"context"
	"html"

	"github.com/lukasmauer/wortschatz/internal/domain"
)

// Sink renders text to the learner.
type Sink interface {
	// Speak pronounces the given sentence. Best-effort: no return value,
	// failures are logged and swallowed.
	Speak(ctx context.Context, text string)
}

// NopSink is the sink used when speech is disabled or unsupported.
type NopSink struct{}

func (NopSink) Speak(context.Context, string) {}

// RenderMarkup passes trusted rich text through for rendering. Only the
// exercise sentence and the grammar tip are typed as RichText; everything
// else goes through EscapeText.
func RenderMarkup(r domain.RichText) string {
	return r.String()
}

// EscapeText escapes a plain-text field for embedding in markup output.
func EscapeText(s string) string {
	return html.EscapeString(s)
}
