// Package keys names the store slots shared by actions and components.
package keys

import "github.com/vango-dev/spendsync/pkg/state"

// Single-value keys.
const (
	// PersonalBankAccount tracks the add-personal-bank-account flow.
	PersonalBankAccount state.Key = "personalBankAccount"

	// PlaidData holds the Plaid account selection.
	PlaidData state.Key = "plaidData"

	// PlaidLinkToken holds the Plaid link token.
	PlaidLinkToken state.Key = "plaidLinkToken"

	// ReimbursementAccount tracks the verified business bank account setup.
	ReimbursementAccount state.Key = "reimbursementAccount"

	// BankAccountList maps bank account ids to bank accounts.
	BankAccountList state.Key = "bankAccountList"

	// PersonalDetailsList maps account ids to personal details.
	PersonalDetailsList state.Key = "personalDetailsList"

	// Network holds connectivity state ({"isOffline": bool}).
	Network state.Key = "network"
)

// Collections.
const (
	Policy state.Collection = "policy_"
	Report state.Collection = "report_"
)
