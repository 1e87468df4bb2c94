// Package errors provides structured, coded errors for spendsync.
//
// Every infrastructure failure (configuration, transport construction,
// attachment storage, localization catalogs) is reported as an *Error that
// carries a registered code, a category, a short message, an optional detail
// and suggestion, and the wrapped cause.
//
// # Error Categories
//
//   - config: configuration file or environment problems
//   - transport: remote command transport failures
//   - store: observable store misuse
//   - attachment: attachment picking and storage failures
//   - localize: translation catalog problems
//   - builder: invalid inputs to update builders
//
// # Usage
//
//	err := errors.New("S101").
//	    WithDetail("api.transport must be http or ws").
//	    WithSuggestion("Set api.transport in spendsync.yaml")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR S101: Invalid configuration value
//	//
//	//   api.transport must be http or ws
//	//
//	//   Hint: Set api.transport in spendsync.yaml
//
// Remote command failures are deliberately NOT surfaced through this package
// to UI callers: the dispatcher converts them into store markers.
package errors
