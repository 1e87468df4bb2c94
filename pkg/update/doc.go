// Package update defines the three-phase descriptor model used by every
// mutating operation.
//
// A Descriptor names a store key, a method (set or merge) and a value. A Set
// groups the descriptors applied optimistically, on confirmed success and on
// confirmed failure:
//
//	set := update.Set{
//	    Optimistic: []update.Descriptor{update.Merge(keys.PersonalBankAccount, map[string]any{"loading": true})},
//	    Success:    []update.Descriptor{update.Merge(keys.PersonalBankAccount, map[string]any{"loading": false})},
//	    Failure:    []update.Descriptor{update.Merge(keys.PersonalBankAccount, map[string]any{"loading": false, "error": msg})},
//	}
//
// Per-field status is tracked with pendingFields and errorFields maps next to
// the field itself. FieldSet builds the canonical triple for one field.
package update
