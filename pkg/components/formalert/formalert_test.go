package formalert

import (
	"strings"
	"testing"

	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/state"
	"github.com/vango-dev/spendsync/pkg/view"
)

func form(isOffline bool) *view.Node {
	label := "Save"
	if isOffline {
		label = "Save (offline)"
	}
	return view.El("button", view.Class("submit"), label)
}

func TestHiddenAlertRendersNoRegion(t *testing.T) {
	for _, msg := range []string{"", "Something broke", "<b>bold</b>"} {
		node := Render(Props{IsAlertVisible: false, Message: msg, IsMessageHTML: true, Children: form})
		if node.FindClass("form-alert") != nil {
			t.Errorf("expected no alert region for message %q", msg)
		}
		html, _ := view.RenderToString(node)
		if strings.Contains(html, `role="alert"`) {
			t.Errorf("expected no alert markup, got %s", html)
		}
		if node.FindClass("submit") == nil {
			t.Error("expected children to render")
		}
	}
}

func TestAlertMessage(t *testing.T) {
	tests := []struct {
		name   string
		props  Props
		expect string
	}{
		{
			name:   "text",
			props:  Props{IsAlertVisible: true, Message: "Bad <input>"},
			expect: `<span class="muted-text-label">Bad &lt;input&gt;</span>`,
		},
		{
			name:   "html",
			props:  Props{IsAlertVisible: true, Message: "Bad <strong>input</strong>", IsMessageHTML: true},
			expect: `<muted-text>Bad <strong>input</strong></muted-text>`,
		},
		{
			name:   "default prompt",
			props:  Props{IsAlertVisible: true},
			expect: `Please </span><a class="label text-link" href="#" data-on-click="true">fix the errors</a><span class="muted-text-label"> in the form before continuing.</span>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := view.RenderToString(Render(tt.props))
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if !strings.Contains(html, tt.expect) {
				t.Errorf("expected %s in %s", tt.expect, html)
			}
		})
	}
}

func TestFixTheErrorsLink(t *testing.T) {
	pressed := 0
	node := Render(Props{IsAlertVisible: true, OnFixTheErrorsPressed: func() { pressed++ }})
	link := node.FindTag("a")
	if link == nil {
		t.Fatal("expected link")
	}
	link.Handler("click").(func())()
	if pressed != 1 {
		t.Errorf("expected 1 press, got %d", pressed)
	}
}

func TestOfflineState(t *testing.T) {
	online := Render(Props{Children: form})
	if online.FindClass("offline-indicator") != nil {
		t.Error("expected no offline indicator while online")
	}
	if got := online.FindClass("submit").TextContent(); got != "Save" {
		t.Errorf("expected children called with online, got %q", got)
	}

	offline := Render(Props{Children: form, Network: Network{IsOffline: true}})
	indicator := offline.FindClass("offline-indicator")
	if indicator == nil {
		t.Fatal("expected offline indicator")
	}
	if !strings.Contains(indicator.TextContent(), "You appear to be offline.") {
		t.Errorf("unexpected indicator text %q", indicator.TextContent())
	}
	if got := offline.FindClass("submit").TextContent(); got != "Save (offline)" {
		t.Errorf("expected children called with offline, got %q", got)
	}
}

func TestNetworkFromStore(t *testing.T) {
	store := state.NewStore()
	if NetworkFromStore(store).IsOffline {
		t.Error("expected online when key is missing")
	}
	store.Set(keys.Network, map[string]any{"isOffline": true})
	if !NetworkFromStore(store).IsOffline {
		t.Error("expected offline")
	}
}
