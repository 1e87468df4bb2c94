// Package api dispatches named remote commands together with their
// optimistic update descriptors.
//
// # How It Works
//
// Dispatcher.Write:
//  1. applies the optimistic descriptors to the store before returning
//  2. sends the command through a Transport on its own goroutine
//  3. when the transport settles, applies any updates the server sent back,
//     then the success descriptors (jsonCode 200) or the failure descriptors
//     (any other code, a transport error, or a timeout)
//
// Failures are never returned to the caller. They become store state (error
// markers, loading flags) that components render. Write returns a *Pending
// handle that only reports when and how the write settled.
//
// # Example
//
//	d := api.New(store, transport.NewHTTP("https://api.example.com"))
//	d.Write(api.CommandDeletePaymentBankAccount,
//	    map[string]any{"bankAccountID": 42},
//	    update.Set{Optimistic: []update.Descriptor{...}})
//
// # Ordering
//
// For one write, optimistic then (success | failure) is guaranteed. Two writes
// that touch the same key settle independently and the last one to settle
// wins. The dispatcher logs and counts such overlaps but does not reconcile
// them.
package api
