package intacct

import (
	"log/slog"
	"time"

	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/localize"
	"github.com/vango-dev/spendsync/pkg/update"
)

// Credentials are the Intacct login used to connect a policy.
type Credentials struct {
	CompanyID string
	UserID    string
	Password  string
}

// Option configures Connections.
type Option func(*Connections)

// WithClock sets the time source used for error keys.
func WithClock(now func() time.Time) Option {
	return func(c *Connections) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for rejected updates.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connections) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Connections issues Intacct connection commands.
type Connections struct {
	writer     api.Writer
	translator localize.Translator
	now        func() time.Time
	logger     *slog.Logger
}

// NewConnections creates the Intacct actions.
func NewConnections(w api.Writer, tr localize.Translator, opts ...Option) *Connections {
	c := &Connections{
		writer:     w,
		translator: tr,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect connects policyID to Intacct. No local state is touched.
func (c *Connections) Connect(policyID string, creds Credentials) *api.Pending {
	params := map[string]any{
		"policyID":         policyID,
		"intacctCompanyID": creds.CompanyID,
		"intacctUserID":    creds.UserID,
		"intacctPassword":  creds.Password,
	}
	return c.writer.Write(api.CommandConnectPolicyToSageIntacct, params, update.Set{})
}

// UpdateAutoSync toggles automatic sync.
func (c *Connections) UpdateAutoSync(policyID string, enabled bool) *api.Pending {
	return c.Update(policyID, SettingAutoSync, Bool(enabled))
}

// UpdateImportEmployees toggles employee import.
func (c *Connections) UpdateImportEmployees(policyID string, enabled bool) *api.Pending {
	return c.Update(policyID, SettingImportEmployees, Bool(enabled))
}

// UpdateApprovalMode sets approvalMode to APPROVAL_MANUAL when enabled and
// unsets it otherwise.
func (c *Connections) UpdateApprovalMode(policyID string, enabled bool) *api.Pending {
	value := Unset()
	if enabled {
		value = Text(ApprovalManual)
	}
	return c.Update(policyID, SettingApprovalMode, value)
}

// UpdateSyncReimbursedReports sets the vendor that reimbursed reports sync to.
// An unset vendor is sent as false.
func (c *Connections) UpdateSyncReimbursedReports(policyID string, vendor SettingValue) *api.Pending {
	if vendor.IsUnset() {
		vendor = Bool(false)
	}
	return c.Update(policyID, SettingSyncReimbursedReports, vendor)
}

// UpdateSyncReimbursementAccountID sets the reimbursement account.
func (c *Connections) UpdateSyncReimbursementAccountID(policyID string, account SettingValue) *api.Pending {
	return c.Update(policyID, SettingReimbursementAccountID, account)
}

// Update writes any known setting. It returns nil, after logging, when the
// setting is unknown or policyID is empty; no command is sent in that case.
func (c *Connections) Update(policyID string, setting Setting, value SettingValue) *api.Pending {
	set, err := PrepareUpdate(policyID, setting, value, c.translator, c.now())
	if err != nil {
		c.logger.Error("intacct setting rejected",
			"policy_id", policyID,
			"setting", string(setting),
			"error", err)
		return nil
	}
	return c.writer.Write(api.CommandUpdatePolicyConnectionConfig, Params(policyID, setting, value), set)
}
