package intacct

import (
	"time"

	"github.com/vango-dev/spendsync/internal/errors"
	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/localize"
	"github.com/vango-dev/spendsync/pkg/update"
)

// ConnectionName is the connection name sent with every config update.
const ConnectionName = "intacct"

// ApprovalManual is the approvalMode value meaning reports need manual
// approval in Intacct.
const ApprovalManual = "APPROVAL_MANUAL"

// Setting names a connection setting.
type Setting string

// Config settings, stored under connections.intacct.config.
const (
	SettingAutoSync        Setting = "isAutoSyncEnabled"
	SettingImportEmployees Setting = "importEmployees"
	SettingApprovalMode    Setting = "approvalMode"
)

// Sync settings, stored under connections.intacct.config.sync.
const (
	SettingSyncReimbursedReports  Setting = "syncReimbursedReports"
	SettingReimbursementAccountID Setting = "reimbursementAccountID"
)

var (
	configSettings = map[Setting]bool{
		SettingAutoSync:        true,
		SettingImportEmployees: true,
		SettingApprovalMode:    true,
	}
	syncSettings = map[Setting]bool{
		SettingSyncReimbursedReports:  true,
		SettingReimbursementAccountID: true,
	}
)

// IsSync reports whether s lives under config.sync.
func (s Setting) IsSync() bool {
	return syncSettings[s]
}

// Known reports whether s is a config or sync setting.
func (s Setting) Known() bool {
	return configSettings[s] || syncSettings[s]
}

// ConfigPath is where config settings live inside a policy.
func ConfigPath() []string {
	return []string{"connections", ConnectionName, "config"}
}

// SyncPath is where sync settings live inside a policy.
func SyncPath() []string {
	return append(ConfigPath(), "sync")
}

// PrepareConfigUpdate returns the descriptor set that writes a config setting
// on policy_<policyID>. The failure message is the translated generic error.
func PrepareConfigUpdate(policyID string, setting Setting, value SettingValue, tr localize.Translator, now time.Time) (update.Set, error) {
	if !configSettings[setting] {
		return update.Set{}, unknownSetting(setting, "config")
	}
	return prepare(policyID, ConfigPath(), setting, value, tr, now)
}

// PrepareSyncUpdate is PrepareConfigUpdate for settings under config.sync.
func PrepareSyncUpdate(policyID string, setting Setting, value SettingValue, tr localize.Translator, now time.Time) (update.Set, error) {
	if !syncSettings[setting] {
		return update.Set{}, unknownSetting(setting, "sync")
	}
	return prepare(policyID, SyncPath(), setting, value, tr, now)
}

// PrepareUpdate dispatches to PrepareConfigUpdate or PrepareSyncUpdate.
func PrepareUpdate(policyID string, setting Setting, value SettingValue, tr localize.Translator, now time.Time) (update.Set, error) {
	if setting.IsSync() {
		return PrepareSyncUpdate(policyID, setting, value, tr, now)
	}
	return PrepareConfigUpdate(policyID, setting, value, tr, now)
}

func prepare(policyID string, path []string, setting Setting, value SettingValue, tr localize.Translator, now time.Time) (update.Set, error) {
	if policyID == "" {
		return update.Set{}, errors.New("S301").WithDetail("policy id is empty")
	}
	msg := tr.Translate("common.genericErrorMessage")
	return update.FieldSet(keys.Policy.Member(policyID), path, string(setting), value.Value(), msg, now), nil
}

func unknownSetting(s Setting, group string) error {
	return errors.New("S600").
		WithDetailf("%q is not an Intacct %s setting", string(s), group).
		WithSuggestion("Config settings: isAutoSyncEnabled, importEmployees, approvalMode. " +
			"Sync settings: syncReimbursedReports, reimbursementAccountID.")
}

// Params returns the UpdatePolicyConnectionConfig parameters for a setting.
func Params(policyID string, setting Setting, value SettingValue) map[string]any {
	return map[string]any{
		"policyID":       policyID,
		"connectionName": ConnectionName,
		"settingName":    string(setting),
		"settingValue":   value.JSON(),
		"idempotencyKey": string(setting),
	}
}
