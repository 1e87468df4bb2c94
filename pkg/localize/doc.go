// Package localize supplies translated strings to update builders and
// components.
//
// Translations live in nested YAML (or JSON) tables that are flattened into
// dotted keys:
//
//	common:
//	  genericErrorMessage: Something went wrong
//
// is looked up as "common.genericErrorMessage". A Catalog holds one table per
// language and negotiates the best table for a requested locale; missing keys
// fall back to the catalog's fallback language and finally to the key itself.
//
//	catalog := localize.Default()
//	tr := catalog.Translator("es-MX")
//	msg := tr.Translate("common.genericErrorMessage")
package localize
