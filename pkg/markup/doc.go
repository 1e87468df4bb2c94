// Package markup converts between chat markdown and HTML.
//
// Markdown is rendered to HTML with goldmark. HTML is converted back to
// markdown or plain text with a tokenizer that understands the custom
// mention and video elements:
//
//	<mention-report reportID="42"></mention-report>  -> #room-name
//	<mention-user accountID="7"></mention-user>      -> @login
//	<video data-expensify-source="u">name</video>    -> ![name](u)
//
// Mention names come from Lookups, which LookupSync keeps current from the
// store. Per-call Extras override them.
package markup
