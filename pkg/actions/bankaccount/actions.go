package bankaccount

import (
	"log/slog"
	"time"

	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/localize"
	"github.com/vango-dev/spendsync/pkg/state"
)

// Option configures Actions.
type Option func(*Actions)

// WithClock sets the time source used for error keys.
func WithClock(now func() time.Time) Option {
	return func(a *Actions) {
		if now != nil {
			a.now = now
		}
	}
}

// WithTracker sets the ACH data source for company updates.
func WithTracker(t *ACHTracker) Option {
	return func(a *Actions) {
		a.tracker = t
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Actions) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Actions issues bank account commands.
type Actions struct {
	writer     api.Writer
	store      *state.Store
	translator localize.Translator
	tracker    *ACHTracker
	now        func() time.Time
	logger     *slog.Logger
}

// New creates the bank account actions. store is used for the local-only
// Clear operations.
func New(w api.Writer, store *state.Store, tr localize.Translator, opts ...Option) *Actions {
	a := &Actions{
		writer:     w,
		store:      store,
		translator: tr,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddPersonalBankAccount adds a Plaid-selected account.
func (a *Actions) AddPersonalBankAccount(account Account, password string) *api.Pending {
	return a.writer.Write(api.CommandAddPersonalBankAccount, account.Params(password), AddPersonalBankAccountSet(a.translator))
}

// DeletePaymentBankAccount deletes a payment bank account.
func (a *Actions) DeletePaymentBankAccount(bankAccountID int64) *api.Pending {
	params := map[string]any{"bankAccountID": bankAccountID}
	return a.writer.Write(api.CommandDeletePaymentBankAccount, params, DeletePaymentBankAccountSet(bankAccountID, a.translator, a.now()))
}

// ValidateBankAccount submits the amounts of the test transactions.
func (a *Actions) ValidateBankAccount(bankAccountID int64, validateCode string) *api.Pending {
	params := map[string]any{
		"bankAccountID": bankAccountID,
		"validateCode":  validateCode,
	}
	return a.writer.Write(api.CommandValidateBankAccountWithTransactions, params, ValidateBankAccountSet())
}

// UpdateCompanyInformationForBankAccount sends the company step merged over
// the tracked ACH data.
func (a *Actions) UpdateCompanyInformationForBankAccount(info CompanyInformation) *api.Pending {
	var ach map[string]any
	if a.tracker != nil {
		ach = a.tracker.Data()
	} else {
		a.logger.Debug("no ACH tracker, sending company information alone")
	}
	params := MergeWithACHData(ach, info.Fields())
	return a.writer.Write(api.CommandUpdateCompanyInformationForBankAccount, params, VBBAData(a.translator, a.now()))
}

// ClearPersonalBankAccount resets the add-account flow state.
func (a *Actions) ClearPersonalBankAccount() error {
	return a.store.Set(keys.PersonalBankAccount, map[string]any{})
}

// ClearPlaid resets the Plaid selection and link token.
func (a *Actions) ClearPlaid() error {
	if err := a.store.Set(keys.PlaidData, map[string]any{}); err != nil {
		return err
	}
	return a.store.Set(keys.PlaidLinkToken, "")
}
