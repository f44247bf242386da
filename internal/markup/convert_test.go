package markup

import (
	"strings"
	"testing"
)

func TestConvert_MarkdownV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "plain text",
			input: "Hello world",
			want:  "Hello world",
		},
		{
			name:  "bold double asterisks",
			input: "**bold text**",
			want:  "*bold text*",
		},
		{
			name:  "bold double underscores",
			input: "__bold text__",
			want:  "*bold text*",
		},
		{
			name:  "italic asterisks",
			input: "*italic text*",
			want:  "_italic text_",
		},
		{
			name:  "italic underscores",
			input: "_italic text_",
			want:  "_italic text_",
		},
		{
			name:  "bold with special chars inside",
			input: "Check **item.one** now",
			want:  `Check *item\.one* now`,
		},
		{
			name:  "inline code kept verbatim",
			input: "Use `fmt.Println` here",
			want:  "Use `fmt.Println` here",
		},
		{
			name:  "code block kept verbatim",
			input: "```go\nx := a.b(c)\n```",
			want:  "```go\nx := a.b(c)\n```",
		},
		{
			name:  "link kept verbatim",
			input: "see [link text](https://example.com/a_b) now.",
			want:  `see [link text](https://example.com/a_b) now\.`,
		},
		{
			name:  "mixed formatting",
			input: "**bold** and *italic* and _also italic_",
			want:  "*bold* and _italic_ and _also italic_",
		},
		{
			name:  "special chars escaped",
			input: "Price: 10.5! (tax included)",
			want:  `Price: 10\.5\! \(tax included\)`,
		},
		{
			name:  "bold spans lines",
			input: "**one\ntwo**",
			want:  "*one\ntwo*",
		},
		{
			name:  "lone delimiters escaped",
			input: "2 * 3 = 6",
			want:  `2 \* 3 \= 6`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Convert(tt.input, DialectMarkdownV2)
			if got != tt.want {
				t.Errorf("Convert(%q)\n  got  = %q\n  want = %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConvert_BoldHasNoDoubleDelimiters(t *testing.T) {
	t.Parallel()

	got := Convert("**bold text**", DialectMarkdownV2)
	if !strings.Contains(got, "*bold text*") {
		t.Errorf("got %q, want it to contain *bold text*", got)
	}
	if strings.Contains(got, "**") {
		t.Errorf("got %q, still contains **", got)
	}
}

func TestConvert_PlainTextEscaped(t *testing.T) {
	t.Parallel()

	got := Convert("Hello! This costs $100 - 50% = $50", DialectMarkdownV2)
	for _, want := range []string{`\!`, `\-`, `\=`} {
		if !strings.Contains(got, want) {
			t.Errorf("got %q, want it to contain %q", got, want)
		}
	}
}

func TestConvert_MultilineArticle(t *testing.T) {
	t.Parallel()

	text := "In practice the ideal PR is **one " +
		"finished feature**. Not a new endpoint, but a scenario (controller, service, " +
		"repository, migration) serving one goal.\n\n" +
		"Why does it work?\n\n" +
		"1.  **Reviewers get the context.** No guessing.\n" +
		"2.  **Cognitive load drops.** One task at a time.\n" +
		"3.  **Rollback is simpler.** Revert one feature."

	got := Convert(text, DialectMarkdownV2)

	for _, want := range []string{
		" *one finished feature*\\. ",
		" *Reviewers get the context\\.* ",
		" *Cognitive load drops\\.* ",
		" *Rollback is simpler\\.* ",
		"\\(controller",
		"migration\\)",
		"1\\.  ",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("converted text missing %q\n  got = %q", want, got)
		}
	}

	for _, r := range []rune{markSpanOpen, markSpanClose, markBold, markItalic} {
		if strings.ContainsRune(got, r) {
			t.Errorf("converted text contains sentinel %U", r)
		}
	}
}

func TestConvert_HTML(t *testing.T) {
	t.Parallel()

	got := Convert("**a** <b> & c", DialectHTML)
	if want := "**a** &lt;b&gt; &amp; c"; got != want {
		t.Errorf("Convert(HTML) = %q, want %q", got, want)
	}
	if got := Convert("", DialectHTML); got != "" {
		t.Errorf("Convert(\"\", HTML) = %q, want empty", got)
	}
}

func TestConvert_ProtectedPayloadNotEscaped(t *testing.T) {
	t.Parallel()

	got := Convert("run `a.b!` then [x.y](http://h/p_q) and ```c-d```", DialectMarkdownV2)
	want := "run `a.b!` then [x.y](http://h/p_q) and ```c-d```"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

const sentinels = "\uE000\uE001\uE002\uE003"

func TestConvert_NestedProtectedSpans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "inline code in link label",
			input: "See [the `Run` method](https://example.com) for details",
			want:  "See [the `Run` method](https://example.com) for details",
		},
		{
			name:  "code block in inline code",
			input: "`a ```b``` c`",
			want:  "`a ```b``` c`",
		},
		{
			name:  "code block in link label",
			input: "[see ```x```](u)",
			want:  "[see ```x```](u)",
		},
		{
			name:  "inline code as link url",
			input: "[x](`u`)",
			want:  "[x](`u`)",
		},
		{
			name:  "bold around link with code",
			input: "**[`a`](u)** done.",
			want:  "*[`a`](u)* done\\.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Convert(tt.input, DialectMarkdownV2)
			if got != tt.want {
				t.Errorf("Convert(%q)\n  got  = %q\n  want = %q", tt.input, got, tt.want)
			}
			if strings.ContainsAny(got, sentinels) {
				t.Errorf("Convert(%q) left a sentinel in %q", tt.input, got)
			}
		})
	}
}

func TestConvert_NoSentinelInOutput(t *testing.T) {
	t.Parallel()

	pieces := []string{"`", "```", "[", "](", "u)", "*", "_", "a "}

	var walk func(prefix string, depth int)
	walk = func(prefix string, depth int) {
		if got := Convert(prefix, DialectMarkdownV2); strings.ContainsAny(got, sentinels) {
			t.Fatalf("Convert(%q) left a sentinel in %q", prefix, got)
		}
		if depth == 0 {
			return
		}
		for _, p := range pieces {
			walk(prefix+p, depth-1)
		}
	}
	walk("", 5)
}
