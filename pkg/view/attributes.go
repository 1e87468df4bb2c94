package view

import "strings"

// A sets any attribute.
func A(key string, value any) Attr { return Attr{Key: key, Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return A("id", id) }

// Class sets the class attribute.
func Class(classes ...string) Attr { return A("class", strings.Join(classes, " ")) }

// Style sets the style attribute.
func Style(style string) Attr { return A("style", style) }

// Data sets a data-* attribute.
func Data(key, value string) Attr { return A("data-"+key, value) }

// Role sets the ARIA role.
func Role(role string) Attr { return A("role", role) }

// AriaLive sets aria-live.
func AriaLive(mode string) Attr { return A("aria-live", mode) }

// Hidden sets the boolean hidden attribute.
func Hidden() Attr { return A("hidden", true) }

// Href sets href.
func Href(url string) Attr { return A("href", url) }

// Name sets name.
func Name(name string) Attr { return A("name", name) }

// Type sets type.
func Type(t string) Attr { return A("type", t) }

// Value sets value.
func Value(v string) Attr { return A("value", v) }

// Accept sets the accepted content types of a file input.
func Accept(types string) Attr { return A("accept", types) }

// OnClick registers a click handler.
func OnClick(fn func()) Attr { return A("onclick", fn) }

// OnChange registers a change handler.
func OnChange(fn any) Attr { return A("onchange", fn) }
