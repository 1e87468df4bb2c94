package bankaccount

import (
	"strconv"
	"time"

	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/localize"
	"github.com/vango-dev/spendsync/pkg/update"
)

// Setup types sent with bank account parameters.
const (
	SetupTypePlaid  = "plaid"
	SetupTypeManual = "manual"
)

// Account is a bank account selected through Plaid.
type Account struct {
	AddressName      string
	RoutingNumber    string
	AccountNumber    string
	IsSavings        bool
	BankName         string
	PlaidAccountID   string
	PlaidAccessToken string
}

// Params returns the AddPersonalBankAccount parameters.
func (a Account) Params(password string) map[string]any {
	return map[string]any{
		"addressName":      a.AddressName,
		"routingNumber":    a.RoutingNumber,
		"accountNumber":    a.AccountNumber,
		"isSavings":        a.IsSavings,
		"setupType":        SetupTypePlaid,
		"bank":             a.BankName,
		"plaidAccountID":   a.PlaidAccountID,
		"plaidAccessToken": a.PlaidAccessToken,
		"password":         password,
	}
}

// AddPersonalBankAccountSet tracks the add flow on personalBankAccount.
func AddPersonalBankAccountSet(tr localize.Translator) update.Set {
	return update.Set{
		Optimistic: []update.Descriptor{update.Merge(keys.PersonalBankAccount, map[string]any{
			"loading": true,
			"error":   "",
		})},
		Success: []update.Descriptor{update.Merge(keys.PersonalBankAccount, map[string]any{
			"loading":           false,
			"error":             "",
			"shouldShowSuccess": true,
		})},
		Failure: []update.Descriptor{update.Merge(keys.PersonalBankAccount, map[string]any{
			"loading": false,
			"error":   tr.Translate("paymentsPage.addBankAccountFailure"),
		})},
	}
}

// DeletePaymentBankAccountSet marks the entry deleted, removes it on success
// and restores it with an error on failure.
func DeletePaymentBankAccountSet(bankAccountID int64, tr localize.Translator, now time.Time) update.Set {
	id := strconv.FormatInt(bankAccountID, 10)
	return update.Set{
		Optimistic: []update.Descriptor{update.Merge(keys.BankAccountList, map[string]any{
			id: map[string]any{update.PendingActionKey: string(update.PendingDelete)},
		})},
		Success: []update.Descriptor{update.Merge(keys.BankAccountList, map[string]any{
			id: nil,
		})},
		Failure: []update.Descriptor{update.Merge(keys.BankAccountList, map[string]any{
			id: map[string]any{
				update.PendingActionKey: nil,
				update.ErrorsKey:        update.MicrosecondError(tr.Translate("common.genericErrorMessage"), now),
			},
		})},
	}
}

// ValidateBankAccountSet toggles reimbursementAccount.isLoading around
// validation.
func ValidateBankAccountSet() update.Set {
	return update.Set{
		Optimistic: []update.Descriptor{update.Merge(keys.ReimbursementAccount, map[string]any{
			"isLoading":      true,
			update.ErrorsKey: nil,
		})},
		Success: []update.Descriptor{update.Merge(keys.ReimbursementAccount, map[string]any{
			"isLoading": false,
		})},
		Failure: []update.Descriptor{update.Merge(keys.ReimbursementAccount, map[string]any{
			"isLoading": false,
		})},
	}
}

// VBBAData is the descriptor set shared by the verified business bank
// account setup steps.
func VBBAData(tr localize.Translator, now time.Time) update.Set {
	return update.Set{
		Optimistic: []update.Descriptor{update.Merge(keys.ReimbursementAccount, map[string]any{
			"isLoading":      true,
			update.ErrorsKey: nil,
		})},
		Success: []update.Descriptor{update.Merge(keys.ReimbursementAccount, map[string]any{
			"isLoading":      false,
			update.ErrorsKey: nil,
		})},
		Failure: []update.Descriptor{update.Merge(keys.ReimbursementAccount, map[string]any{
			"isLoading":      false,
			update.ErrorsKey: update.MicrosecondError(tr.Translate("paymentsPage.addBankAccountFailure"), now),
		})},
	}
}
