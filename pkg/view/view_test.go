package view

import "testing"

func TestRenderToString(t *testing.T) {
	clicked := false
	node := El("div", Class("alert", "visible"), ID("a1"),
		El("input", Type("file"), Hidden(), A("disabled", false), Accept("image/*")),
		Text("<b>&"),
		Raw("<em>ok</em>"),
		El("a", Href("#"), OnClick(func() { clicked = true }), "fix"),
		nil,
	)

	got, err := RenderToString(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<div class="alert visible" id="a1">` +
		`<input accept="image/*" hidden type="file">` +
		`&lt;b&gt;&amp;` +
		`<em>ok</em>` +
		`<a href="#" data-on-click="true">fix</a>` +
		`</div>`
	if got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}

	link := node.FindTag("a")
	link.Handler("click").(func())()
	if !clicked {
		t.Error("expected click handler to be retrievable")
	}
}

func TestEscapeAttr(t *testing.T) {
	got, _ := RenderToString(El("span", A("title", "a\"b\nc")))
	want := `<span title="a&quot;b&#10;c"></span>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestFragmentAndIf(t *testing.T) {
	node := Fragment(Text("a"), If(false, Text("b")), If(true, Text("c")))
	got, _ := RenderToString(node)
	if got != "ac" {
		t.Errorf("expected ac, got %s", got)
	}
	if node.TextContent() != "ac" {
		t.Errorf("expected text content ac, got %s", node.TextContent())
	}
}

func TestFind(t *testing.T) {
	node := El("div",
		El("p", Class("one")),
		El("section", El("p", Class("two target"))),
	)
	if n := node.FindClass("target"); n == nil || n.Tag != "p" {
		t.Errorf("expected to find .target, got %v", n)
	}
	if node.FindClass("missing") != nil {
		t.Error("expected nil for missing class")
	}
	if n := node.FindTag("section"); n == nil {
		t.Error("expected to find section")
	}
}

func TestKindString(t *testing.T) {
	if KindRaw.String() != "Raw" || Kind(99).String() != "Unknown" {
		t.Error("unexpected kind names")
	}
}
