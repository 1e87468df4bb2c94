package markup

import (
	"bytes"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"

	"github.com/vango-dev/spendsync/internal/errors"
)

// Extras override the parser's lookups for one call.
type Extras struct {
	// ReportIDToName replaces the report lookup when non-nil.
	ReportIDToName map[string]string

	// AccountIDToName replaces the account lookup when non-nil.
	AccountIDToName map[string]string

	// CacheVideoAttributes receives the source and the remaining attributes
	// of every video element converted to markdown.
	CacheVideoAttributes func(src, attrs string)
}

// Option configures a Parser.
type Option func(*Parser)

// WithLookups sets the lookups used when a call passes no Extras.
func WithLookups(l *Lookups) Option {
	return func(p *Parser) {
		if l != nil {
			p.lookups = l
		}
	}
}

// WithLogger sets the parser logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser converts between markdown and HTML. It is safe for concurrent use.
type Parser struct {
	md      goldmark.Markdown
	lookups *Lookups
	logger  *slog.Logger
}

// NewParser creates a parser with its own empty lookups unless WithLookups
// is given.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Linkify,
			),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		lookups: NewLookups(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lookups returns the parser's lookups.
func (p *Parser) Lookups() *Lookups {
	return p.lookups
}

// MarkdownToHTML renders markdown. Raw HTML in the source is escaped.
func (p *Parser) MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(src), &buf); err != nil {
		return "", errors.New("S520").Wrap(err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// HTMLToMarkdown converts HTML back to markdown.
func (p *Parser) HTMLToMarkdown(htmlString string, extras *Extras) string {
	return p.convert(htmlString, extras, false)
}

// HTMLToText strips HTML down to readable text. Mentions keep their
// resolved names; attachments become "[Attachment]".
func (p *Parser) HTMLToText(htmlString string, extras *Extras) string {
	return p.convert(htmlString, extras, true)
}

func (p *Parser) convert(htmlString string, extras *Extras, plain bool) string {
	c := &converter{plain: plain, names: resolver{lookups: p.lookups, extras: extras}}
	z := xhtml.NewTokenizer(strings.NewReader(htmlString))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			if err := z.Err(); err != io.EOF {
				p.logger.Warn("html tokenizer stopped", "error", err)
			}
			break
		}
		c.token(tt, z.Token())
	}
	return strings.TrimRight(c.out.String(), "\n ")
}

// resolver picks names from Extras when given, from Lookups otherwise.
type resolver struct {
	lookups *Lookups
	extras  *Extras
}

func (r resolver) report(id string) (string, bool) {
	if r.extras != nil && r.extras.ReportIDToName != nil {
		name, ok := r.extras.ReportIDToName[id]
		return name, ok
	}
	return r.lookups.ReportName(id)
}

func (r resolver) account(id string) (string, bool) {
	if r.extras != nil && r.extras.AccountIDToName != nil {
		login, ok := r.extras.AccountIDToName[id]
		return login, ok
	}
	return r.lookups.AccountLogin(id)
}

func (r resolver) cacheVideo(src, attrs string) {
	if r.extras != nil && r.extras.CacheVideoAttributes != nil {
		r.extras.CacheVideoAttributes(src, attrs)
	}
}

// capture collects the inner text of an element that is written out as a
// whole when it closes.
type capture struct {
	tag     string
	text    strings.Builder
	href    string
	src     string
	mention string // resolved mention, replaces the inner text
}

type converter struct {
	plain bool
	names resolver

	out   strings.Builder
	open  []*capture
	skip  int
	pre   int
	quote int
}

func (c *converter) w() *strings.Builder {
	if n := len(c.open); n > 0 {
		return &c.open[n-1].text
	}
	return &c.out
}

func (c *converter) write(s string) {
	if c.skip > 0 || s == "" {
		return
	}
	c.w().WriteString(s)
}

func (c *converter) newline() {
	if c.skip > 0 || c.atLineStart() {
		return
	}
	c.w().WriteString("\n")
}

func (c *converter) atLineStart() bool {
	b := c.w()
	return b.Len() == 0 || strings.HasSuffix(b.String(), "\n")
}

func (c *converter) markdown(s string) {
	if !c.plain {
		c.write(s)
	}
}

func (c *converter) token(tt xhtml.TokenType, tok xhtml.Token) {
	switch tt {
	case xhtml.TextToken:
		text := tok.Data
		if c.pre == 0 {
			text = collapseSpace(text)
			if text == " " && c.atLineStart() {
				return
			}
		}
		c.write(text)
	case xhtml.StartTagToken:
		c.start(tok)
	case xhtml.EndTagToken:
		c.end(tok.Data)
	case xhtml.SelfClosingTagToken:
		c.start(tok)
		c.end(tok.Data)
	}
}

func (c *converter) start(tok xhtml.Token) {
	switch tok.Data {
	case "script", "style":
		c.skip++
	case "br":
		c.write("\n")
		if c.quote > 0 {
			c.markdown("> ")
		}
	case "b", "strong":
		c.markdown("*")
	case "i", "em":
		c.markdown("_")
	case "s", "del", "strike":
		c.markdown("~")
	case "code":
		if c.pre == 0 {
			c.markdown("`")
		}
	case "pre":
		c.newline()
		c.markdown("```\n")
		c.pre++
	case "blockquote":
		c.newline()
		c.markdown("> ")
		c.quote++
	case "h1":
		c.newline()
		c.markdown("# ")
	case "li":
		c.newline()
		c.markdown("- ")
	case "img":
		if c.plain {
			c.write("[Attachment]")
			return
		}
		c.write("![" + attr(tok, "alt") + "](" + attr(tok, "src") + ")")
	case "a":
		c.open = append(c.open, &capture{tag: "a", href: attr(tok, "href")})
	case "video":
		src := attr(tok, "data-expensify-source")
		if src == "" {
			src = attr(tok, "src")
		}
		if !c.plain {
			c.names.cacheVideo(src, videoAttrs(tok))
		}
		c.open = append(c.open, &capture{tag: "video", src: src})
	case "mention-report":
		cp := &capture{tag: tok.Data}
		if id := attr(tok, "reportid"); id != "" {
			if name, ok := c.names.report(id); ok && name != "" {
				if !strings.HasPrefix(name, "#") {
					name = "#" + name
				}
				cp.mention = name
			}
		}
		c.open = append(c.open, cp)
	case "mention-user":
		cp := &capture{tag: tok.Data}
		if id := attr(tok, "accountid"); id != "" {
			if login, ok := c.names.account(id); ok && login != "" {
				cp.mention = "@" + login
			}
		}
		c.open = append(c.open, cp)
	}
}

func (c *converter) end(tag string) {
	switch tag {
	case "script", "style":
		if c.skip > 0 {
			c.skip--
		}
	case "b", "strong":
		c.markdown("*")
	case "i", "em":
		c.markdown("_")
	case "s", "del", "strike":
		c.markdown("~")
	case "code":
		if c.pre == 0 {
			c.markdown("`")
		}
	case "pre":
		if c.pre > 0 {
			c.pre--
		}
		c.newline()
		c.markdown("```")
		c.write("\n")
	case "blockquote":
		if c.quote > 0 {
			c.quote--
		}
		c.newline()
	case "p", "div", "h1", "li":
		c.newline()
	case "a", "video", "mention-report", "mention-user":
		c.closeCapture(tag)
	}
}

func (c *converter) closeCapture(tag string) {
	n := len(c.open)
	if n == 0 || c.open[n-1].tag != tag {
		return
	}
	cp := c.open[n-1]
	c.open = c.open[:n-1]
	inner := cp.text.String()

	switch tag {
	case "a":
		switch {
		case c.plain && inner != "":
			c.write(inner)
		case inner == "" || inner == cp.href:
			c.write(cp.href)
		default:
			c.write("[" + inner + "](" + cp.href + ")")
		}
	case "video":
		if c.plain {
			c.write("[Attachment]")
			return
		}
		c.write("![" + inner + "](" + cp.src + ")")
	default:
		if cp.mention != "" {
			c.write(cp.mention)
			return
		}
		c.write(inner)
	}
}

func attr(tok xhtml.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// videoAttrs formats every attribute except the source, sorted by name.
func videoAttrs(tok xhtml.Token) string {
	parts := make([]string, 0, len(tok.Attr))
	for _, a := range tok.Attr {
		if a.Key == "data-expensify-source" || a.Key == "src" {
			continue
		}
		parts = append(parts, a.Key+`="`+a.Val+`"`)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// collapseSpace folds runs of whitespace into single spaces.
func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	lead := s[0] == ' ' || s[0] == '\n' || s[0] == '\t'
	last := s[len(s)-1]
	trail := last == ' ' || last == '\n' || last == '\t'
	out := strings.Join(strings.Fields(s), " ")
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}
