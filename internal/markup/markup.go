// Package markup handles note content as opaque marked-up text: tag stripping,
// word counting, and a fixed tag-to-Markdown translation used by exports.
package markup

import (
	"regexp"
	"strings"
)

var (
	tagRe          = regexp.MustCompile(`<[^>]*>`)
	headingOpenRe  = regexp.MustCompile(`<h([1-6])>`)
	headingCloseRe = regexp.MustCompile(`</h[1-6]>`)
	breakRe        = regexp.MustCompile(`<br\s*/?>`)
	blankLinesRe   = regexp.MustCompile(`\n\n+`)
)

// blockReplacer translates the inline and structural tags of the editor.
var blockReplacer = strings.NewReplacer(
	"<strong>", "**",
	"</strong>", "**",
	"<em>", "*",
	"</em>", "*",
	"<u>", "_",
	"</u>", "_",
	"<p>", "",
	"</p>", "\n\n",
	"<ul>", "",
	"</ul>", "\n",
	"<ol>", "",
	"</ol>", "\n",
	"<li>", "- ",
	"</li>", "\n",
)

// StripTags removes every <...> sequence from s.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// WordCount counts whitespace-separated tokens in s after stripping tags.
func WordCount(s string) int {
	return len(strings.Fields(StripTags(s)))
}

// ToMarkdown converts editor markup into a Markdown-like plain form.
// Unknown tags are dropped.
func ToMarkdown(s string) string {
	out := headingOpenRe.ReplaceAllStringFunc(s, func(m string) string {
		level := int(m[2] - '0')
		return strings.Repeat("#", level) + " "
	})
	out = headingCloseRe.ReplaceAllString(out, "\n\n")
	out = breakRe.ReplaceAllString(out, "\n")
	out = blockReplacer.Replace(out)
	out = tagRe.ReplaceAllString(out, "")
	out = blankLinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
