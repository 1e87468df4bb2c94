package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/spendsync/internal/app"
	"github.com/vango-dev/spendsync/pkg/actions/intacct"
	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/keys"
)

func intacctCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intacct",
		Short: "Manage a policy's Sage Intacct connection",
	}

	toggles := []struct {
		use, short string
		update     func(c *intacct.Connections, policyID string, enabled bool) *api.Pending
	}{
		{"auto-sync", "Enable or disable automatic sync", (*intacct.Connections).UpdateAutoSync},
		{"import-employees", "Enable or disable employee import", (*intacct.Connections).UpdateImportEmployees},
		{"approval-mode", "Enable or disable manual approval", (*intacct.Connections).UpdateApprovalMode},
	}
	for _, tg := range toggles {
		cmd.AddCommand(toggleCmd(flags, tg.use, tg.short, tg.update))
	}

	cmd.AddCommand(
		textSettingCmd(flags, "sync-reimbursed-reports", "vendor",
			"Sync reimbursed reports to a vendor (omit --vendor to disable)",
			(*intacct.Connections).UpdateSyncReimbursedReports),
		textSettingCmd(flags, "reimbursement-account", "account",
			"Set the reimbursement account (omit --account to clear)",
			(*intacct.Connections).UpdateSyncReimbursementAccountID),
		connectCmd(flags),
	)
	return cmd
}

func toggleCmd(flags *globalFlags, use, short string, fn func(*intacct.Connections, string, bool) *api.Pending) *cobra.Command {
	var (
		policyID string
		enabled  bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withApp(cmd.Context(), func(a *app.App) error {
				return flags.settle(cmd.Context(), a, fn(a.Intacct, policyID, enabled), keys.Policy.Member(policyID))
			})
		},
	}
	cmd.Flags().StringVar(&policyID, "policy", "", "Policy ID")
	cmd.Flags().BoolVar(&enabled, "enabled", false, "New value")
	cmd.MarkFlagRequired("policy")
	return cmd
}

func textSettingCmd(flags *globalFlags, use, flag, short string, fn func(*intacct.Connections, string, intacct.SettingValue) *api.Pending) *cobra.Command {
	var (
		policyID string
		text     string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			value := intacct.Unset()
			if cmd.Flags().Changed(flag) && text != "" {
				value = intacct.Text(text)
			}
			return flags.withApp(cmd.Context(), func(a *app.App) error {
				return flags.settle(cmd.Context(), a, fn(a.Intacct, policyID, value), keys.Policy.Member(policyID))
			})
		},
	}
	cmd.Flags().StringVar(&policyID, "policy", "", "Policy ID")
	cmd.Flags().StringVar(&text, flag, "", fmt.Sprintf("New %s", flag))
	cmd.MarkFlagRequired("policy")
	return cmd
}

func connectCmd(flags *globalFlags) *cobra.Command {
	var (
		policyID string
		creds    intacct.Credentials
	)
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect a policy to Sage Intacct",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withApp(cmd.Context(), func(a *app.App) error {
				return flags.settle(cmd.Context(), a, a.Intacct.Connect(policyID, creds), keys.Policy.Member(policyID))
			})
		},
	}
	cmd.Flags().StringVar(&policyID, "policy", "", "Policy ID")
	cmd.Flags().StringVar(&creds.CompanyID, "company", "", "Intacct company ID")
	cmd.Flags().StringVar(&creds.UserID, "user", "", "Intacct user ID")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Intacct password")
	cmd.MarkFlagRequired("policy")
	return cmd
}
