package channel

import (
	"testing"

	"github.com/flemzord/tgsend/internal/markup"
)

func tagNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpenTags_MarkdownV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "balanced", text: "*bold* _it_ `code` ~s~", want: nil},
		{name: "open bold", text: "*bold", want: []string{"*"}},
		{name: "opening order kept", text: "_a *b", want: []string{"_", "*"}},
		{name: "parity", text: "* * *", want: []string{"*"}},
		{name: "escaped delimiters ignored", text: `\*not bold\* \_ \~`, want: nil},
		{name: "escaped backslash then delimiter", text: `\\*`, want: []string{"*"}},
		{name: "delimiters inside code are literal", text: "`a_b*c` and *x", want: []string{"*"}},
		{name: "open code span", text: "see `a_b", want: []string{"`"}},
		{name: "open pre block", text: "```go\nx := a * b\n", want: []string{"```"}},
		{name: "closed pre block", text: "```\n_x_\n``` *y*", want: nil},
		{name: "link url is opaque", text: "[label](http://x/a_b*c) _y", want: []string{"_"}},
		{name: "escaped paren inside url", text: `[l](http://x/\)_a) *`, want: []string{"*"}},
		{name: "formatting in link label counts", text: "[*bold](http://x)", want: []string{"*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tagNames(OpenTags(tt.text, markup.DialectMarkdownV2))
			if !equalNames(got, tt.want) {
				t.Errorf("OpenTags(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestOpenTags_HTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "balanced", text: "<b>x</b> <i>y</i>", want: nil},
		{name: "open", text: "<b>x <i>y", want: []string{"b", "i"}},
		{name: "stray closer ignored", text: "</b><i>x", want: []string{"i"}},
		{name: "close must match top", text: "<b><i>x</b>", want: []string{"b", "i"}},
		{name: "case insensitive", text: "<B>x</b><I>", want: []string{"i"}},
		{name: "attributes", text: `<a href="https://e.com">x`, want: []string{"a"}},
		{name: "escaped text has no tags", text: "&lt;b&gt;x", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tagNames(OpenTags(tt.text, markup.DialectHTML))
			if !equalNames(got, tt.want) {
				t.Errorf("OpenTags(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestOpenTags_Serialization(t *testing.T) {
	t.Parallel()

	tags := OpenTags(`<b><a href="u">x`, markup.DialectHTML)
	if got, want := closers(tags), "</a></b>"; got != want {
		t.Errorf("closers = %q, want %q", got, want)
	}
	if got, want := openers(tags), `<b><a href="u">`; got != want {
		t.Errorf("openers = %q, want %q", got, want)
	}
	if tags[1].Pos != 3 {
		t.Errorf("Pos = %d, want 3", tags[1].Pos)
	}

	md := OpenTags("x *a _b", markup.DialectMarkdownV2)
	if got, want := closers(md), "_*"; got != want {
		t.Errorf("closers = %q, want %q", got, want)
	}
	if got, want := openers(md), "*_"; got != want {
		t.Errorf("openers = %q, want %q", got, want)
	}
}
