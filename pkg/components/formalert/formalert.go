// Package formalert renders the standard form footer: an optional error
// alert above the form's submit area, and an offline indicator below it.
package formalert

import (
	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/localize"
	"github.com/vango-dev/spendsync/pkg/state"
	"github.com/vango-dev/spendsync/pkg/view"
)

// Network is the connectivity state stored under keys.Network.
type Network struct {
	IsOffline bool `json:"isOffline"`
}

// NetworkFromStore reads the connectivity state. A missing key means online.
func NetworkFromStore(store *state.Store) Network {
	m := store.GetMap(keys.Network)
	offline, _ := m["isOffline"].(bool)
	return Network{IsOffline: offline}
}

// Props configures Render.
type Props struct {
	// IsAlertVisible shows the alert region.
	IsAlertVisible bool

	// IsMessageHTML renders Message as trusted markup.
	IsMessageHTML bool

	// Message is shown in the alert. When empty, the alert asks the user to
	// fix the errors in the form.
	Message string

	// OnFixTheErrorsPressed is wired to the "fix the errors" link.
	OnFixTheErrorsPressed func()

	Network Network

	// Children renders the wrapped form content.
	Children func(isOffline bool) *view.Node

	// Translator defaults to English.
	Translator localize.Translator

	// Class is appended to the container's classes.
	Class string
}

// Render returns the wrapper tree.
func Render(p Props) *view.Node {
	tr := p.Translator
	if tr == nil {
		tr = localize.Default().Translator("en")
	}

	var alert *view.Node
	if p.IsAlertVisible {
		alert = view.El("div",
			view.Class("form-alert", "flex-row", "align-items-center", "mb3"),
			view.Role("alert"),
			view.El("span", view.Class("icon", "icon-exclamation")),
			view.El("div", view.Class("flex-row", "ml2", "flex-wrap", "flex1"), alertPrompt(p, tr)),
		)
	}

	var children *view.Node
	if p.Children != nil {
		children = p.Children(p.Network.IsOffline)
	}

	var offline *view.Node
	if p.Network.IsOffline {
		offline = OfflineIndicator(tr)
	}

	classes := []string{"form-alert-wrapper", "mh5", "mb5", "flex1", "justify-content-end"}
	if p.Class != "" {
		classes = append(classes, p.Class)
	}
	return view.El("div", view.Class(classes...), alert, children, offline)
}

func alertPrompt(p Props, tr localize.Translator) *view.Node {
	if p.Message != "" {
		if p.IsMessageHTML {
			return view.Raw("<muted-text>" + p.Message + "</muted-text>")
		}
		return view.El("span", view.Class("muted-text-label"), p.Message)
	}

	onPress := p.OnFixTheErrorsPressed
	if onPress == nil {
		onPress = func() {}
	}
	return view.Fragment(
		view.El("span", view.Class("muted-text-label"), tr.Translate("common.please")+" "),
		view.El("a", view.Class("label", "text-link"), view.Href("#"), view.OnClick(onPress), tr.Translate("common.fixTheErrors")),
		view.El("span", view.Class("muted-text-label"), " "+tr.Translate("common.inTheFormBeforeContinuing")+"."),
	)
}

// OfflineIndicator renders the "you appear to be offline" notice.
func OfflineIndicator(tr localize.Translator) *view.Node {
	return view.El("div",
		view.Class("offline-indicator"),
		view.AriaLive("polite"),
		view.El("span", view.Class("icon", "icon-offline")),
		view.El("span", view.Class("text-label"), tr.Translate("common.youAppearToBeOffline")),
	)
}
