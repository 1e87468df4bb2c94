// Package intacct builds and issues Sage Intacct connection updates.
//
// Every setting change is a merge into the policy's
// connections.intacct.config (or config.sync) object with the usual
// pendingFields/errorFields markers. The value itself is a SettingValue so
// an explicit false or empty string is never confused with "unset".
//
//	conns := intacct.NewConnections(dispatcher, translator)
//	conns.UpdateSyncReimbursedReports("ABC123", intacct.Bool(false))
package intacct
