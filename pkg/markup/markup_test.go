package markup

import (
	"strings"
	"testing"

	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/state"
)

func TestMarkdownToHTML(t *testing.T) {
	p := NewParser()
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"emphasis", "Hello *world*", "<p>Hello <em>world</em></p>"},
		{"strong", "**bold**", "<p><strong>bold</strong></p>"},
		{"strikethrough", "~~gone~~", "<p><del>gone</del></p>"},
		{"linkify", "see https://example.com", `<a href="https://example.com">https://example.com</a>`},
		{"hard wraps", "a\nb", "<br>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.MarkdownToHTML(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(got, tt.expect) {
				t.Errorf("expected %q in %q", tt.expect, got)
			}
		})
	}
}

func TestMarkdownToHTMLEscapesRawHTML(t *testing.T) {
	got, err := NewParser().MarkdownToHTML("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("expected raw HTML to be dropped, got %q", got)
	}
}

func newTestParser() *Parser {
	l := NewLookups()
	l.SetReport("42", "#admins")
	l.SetAccounts(map[string]string{"7": "jo@example.com"})
	return NewParser(WithLookups(l))
}

func TestHTMLToMarkdown(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"inline styles", "<strong>bold</strong> and <em>it</em> <del>x</del>", "*bold* and _it_ ~x~"},
		{"link", `<a href="https://x.com">site</a>`, "[site](https://x.com)"},
		{"bare link", `<a href="https://x.com">https://x.com</a>`, "https://x.com"},
		{"line break", "line1<br>line2", "line1\nline2"},
		{"code", "run <code>make</code>", "run `make`"},
		{"pre", "<pre>a\n  b</pre>", "```\na\n  b\n```"},
		{"quote", "<blockquote>quoted</blockquote>after", "> quoted\nafter"},
		{"report mention", `<mention-report reportID="42"></mention-report> hi`, "#admins hi"},
		{"user mention", `<mention-user accountID="7"></mention-user>`, "@jo@example.com"},
		{"unknown user", `<mention-user accountID="99">@someone</mention-user>`, "@someone"},
		{"image", `<img src="https://x.com/a.png" alt="receipt">`, "![receipt](https://x.com/a.png)"},
		{"entities", "a &amp; b &lt;c&gt;", "a & b <c>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.HTMLToMarkdown(tt.input, nil); got != tt.expect {
				t.Errorf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestHTMLToText(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"styles and link", `<strong>bold</strong> <a href="u">link</a>`, "bold link"},
		{"paragraphs", "<p>one</p>\n<p>two</p>", "one\ntwo"},
		{"mentions", `<mention-user accountID="7"></mention-user> in <mention-report reportID="42"></mention-report>`, "@jo@example.com in #admins"},
		{"attachments", `<video data-expensify-source="v.mp4">clip</video> <img src="a.png">`, "[Attachment] [Attachment]"},
		{"script", "a<script>alert(1)</script>b", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.HTMLToText(tt.input, nil); got != tt.expect {
				t.Errorf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExtrasOverrideLookups(t *testing.T) {
	p := newTestParser()
	input := `<mention-report reportID="42">#fallback</mention-report>`

	got := p.HTMLToMarkdown(input, &Extras{ReportIDToName: map[string]string{"42": "ops"}})
	if got != "#ops" {
		t.Errorf("expected #ops, got %q", got)
	}

	// A non-nil map replaces the lookups entirely.
	got = p.HTMLToMarkdown(input, &Extras{ReportIDToName: map[string]string{}})
	if got != "#fallback" {
		t.Errorf("expected #fallback, got %q", got)
	}

	// Without a report map the lookups still apply.
	got = p.HTMLToMarkdown(input, &Extras{AccountIDToName: map[string]string{}})
	if got != "#admins" {
		t.Errorf("expected #admins, got %q", got)
	}
}

func TestVideoAttributesCached(t *testing.T) {
	p := NewParser()
	var src, attrs string
	calls := 0
	extras := &Extras{CacheVideoAttributes: func(s, a string) {
		calls++
		src, attrs = s, a
	}}

	got := p.HTMLToMarkdown(`<video data-expensify-source="https://cdn/v.mp4" data-expensify-width="640" data-expensify-height="480">clip.mp4</video>`, extras)
	if got != "![clip.mp4](https://cdn/v.mp4)" {
		t.Errorf("unexpected markdown %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected 1 cache call, got %d", calls)
	}
	if src != "https://cdn/v.mp4" {
		t.Errorf("expected source, got %q", src)
	}
	if attrs != `data-expensify-height="480" data-expensify-width="640"` {
		t.Errorf("unexpected attrs %q", attrs)
	}

	p.HTMLToText(`<video data-expensify-source="x">y</video>`, extras)
	if calls != 1 {
		t.Errorf("expected text conversion not to cache, got %d calls", calls)
	}
}

func TestLookupSync(t *testing.T) {
	store := state.NewStore()
	store.Set(keys.Report.Member("1"), map[string]any{"reportID": "1", "reportName": "#admins"})
	store.Set(keys.Report.Member("2"), map[string]any{"reportID": 2, "displayName": "Budget"})
	store.Set(keys.Report.Member("3"), map[string]any{"total": 10})
	store.Set(keys.PersonalDetailsList, map[string]any{
		"7": map[string]any{"accountID": 7, "login": "jo@example.com"},
		"8": map[string]any{"accountID": 8},
	})

	lookups := NewLookups()
	sync := NewLookupSync(lookups, nil)
	sync.Start(store)

	checks := []struct {
		id, want string
	}{
		{"1", "#admins"},
		{"2", "Budget"},
		{"3", "3"},
	}
	for _, c := range checks {
		if got, _ := lookups.ReportName(c.id); got != c.want {
			t.Errorf("report %s: expected %q, got %q", c.id, c.want, got)
		}
	}
	if got, _ := lookups.AccountLogin("7"); got != "jo@example.com" {
		t.Errorf("expected login, got %q", got)
	}
	if got, _ := lookups.AccountLogin("8"); got != "8" {
		t.Errorf("expected account id fallback, got %q", got)
	}

	store.Merge(keys.Report.Member("1"), map[string]any{"reportName": "#ops"})
	if got, _ := lookups.ReportName("1"); got != "#ops" {
		t.Errorf("expected renamed report, got %q", got)
	}
	store.Set(keys.Report.Member("2"), nil)
	if _, ok := lookups.ReportName("2"); ok {
		t.Error("expected removed report to be forgotten")
	}
	store.Set(keys.PersonalDetailsList, map[string]any{
		"9": map[string]any{"accountID": "9", "login": "new@example.com"},
	})
	if _, ok := lookups.AccountLogin("7"); ok {
		t.Error("expected account list to be rebuilt")
	}

	sync.Stop()
	if store.Subscribers() != 0 {
		t.Errorf("expected no subscribers after Stop, got %d", store.Subscribers())
	}
	store.Set(keys.Report.Member("4"), map[string]any{"reportName": "late"})
	if _, ok := lookups.ReportName("4"); ok {
		t.Error("expected no updates after Stop")
	}

	p := NewParser(WithLookups(lookups))
	if got := p.HTMLToText(`<mention-report reportID="1"></mention-report>`, nil); got != "#ops" {
		t.Errorf("expected parser to use synced lookups, got %q", got)
	}
}
