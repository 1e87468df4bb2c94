// Package view is a small virtual node tree and HTML renderer for the
// boundary components (attachment picker, form alert).
//
// Nodes are built with El, Text, Raw and Fragment:
//
//	node := view.El("div", view.Class("form-alert"),
//	    view.El("muted-text", view.Text("Please fix the errors")),
//	)
//	html, _ := view.RenderToString(node)
//
// Event handlers are kept on the node under their "on..." prop and are not
// rendered; callers (and tests) retrieve them with Node.Handler.
package view
