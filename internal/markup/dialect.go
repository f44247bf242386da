// Package markup converts generic lightweight markdown into the Telegram
// markup dialects and escapes dialect-reserved punctuation.
//
// Two dialects are supported:
//
//   - MarkdownV2, the primary dialect: strict escaping of 18 punctuation
//     characters, with bold, italic, code, pre, strike and link syntax.
//   - HTML, the fallback dialect: only &, < and > are escaped and no inline
//     formatting is produced, so any text renders as plain text.
package markup

import "fmt"

// MaxMessageLength is the Telegram limit for a single text message, in
// Unicode code points.
const MaxMessageLength = 4096

// Dialect identifies a set of escape and markup rules.
type Dialect int

const (
	// DialectMarkdownV2 is the primary dialect (parse_mode=MarkdownV2).
	DialectMarkdownV2 Dialect = iota
	// DialectHTML is the minimally escaped fallback dialect (parse_mode=HTML).
	DialectHTML
)

// ParseMode returns the Telegram Bot API parse_mode value for d.
func (d Dialect) ParseMode() string {
	switch d {
	case DialectMarkdownV2:
		return "MarkdownV2"
	case DialectHTML:
		return "HTML"
	default:
		return ""
	}
}

// String returns a short lower-case name, used in logs and metric labels.
func (d Dialect) String() string {
	switch d {
	case DialectMarkdownV2:
		return "markdownv2"
	case DialectHTML:
		return "html"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDialect resolves a dialect name. Both the String and the ParseMode
// forms are accepted, case-sensitively.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "markdownv2", "MarkdownV2":
		return DialectMarkdownV2, nil
	case "html", "HTML":
		return DialectHTML, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q", name)
	}
}

// MarkdownV2Reserved lists every character that must be escaped in
// MarkdownV2 text outside of code and link spans.
const MarkdownV2Reserved = "_*[]()~`>#+-=|{}.!"

// MarkdownV2 delimiters emitted by Convert and tracked by the chunker.
const (
	DelimBold   = "*"
	DelimItalic = "_"
	DelimCode   = "`"
	DelimPre    = "```"
	DelimStrike = "~"
)

// IsMarkdownV2Reserved reports whether r must be escaped in MarkdownV2.
func IsMarkdownV2Reserved(r rune) bool {
	switch r {
	case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
		return true
	}
	return false
}
