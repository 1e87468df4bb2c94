package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/spendsync/internal/app"
	"github.com/vango-dev/spendsync/pkg/actions/bankaccount"
	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/state"
)

func bankCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Manage bank accounts",
	}
	cmd.AddCommand(bankAddCmd(flags), bankCompanyCmd(flags), bankDeleteCmd(flags), bankValidateCmd(flags), bankClearCmd(flags))
	return cmd
}

func bankAddCmd(flags *globalFlags) *cobra.Command {
	var (
		account  bankaccount.Account
		password string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a personal bank account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withApp(cmd.Context(), func(a *app.App) error {
				if err := flags.settle(cmd.Context(), a, a.Bank.AddPersonalBankAccount(account, password), keys.PersonalBankAccount); err != nil {
					return err
				}
				return printKey(a.Store, keys.BankAccountList)
			})
		},
	}
	cmd.Flags().StringVar(&account.AddressName, "name", "", "Account name")
	cmd.Flags().StringVar(&account.RoutingNumber, "routing", "", "Routing number")
	cmd.Flags().StringVar(&account.AccountNumber, "account", "", "Account number")
	cmd.Flags().BoolVar(&account.IsSavings, "savings", false, "Savings account")
	cmd.Flags().StringVar(&account.BankName, "bank", "", "Bank name")
	cmd.Flags().StringVar(&account.PlaidAccountID, "plaid-account", "", "Plaid account ID")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func bankCompanyCmd(flags *globalFlags) *cobra.Command {
	var (
		info              bankaccount.CompanyInformation
		savings, cannabis bool
	)
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Send company information for a business bank account",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Unset booleans stay nil so the tracked ACH data shows through.
			if cmd.Flags().Changed("savings") {
				info.IsSavings = &savings
			}
			if cmd.Flags().Changed("no-cannabis") {
				info.HasNoConnectionToCannabis = &cannabis
			}
			return flags.withApp(cmd.Context(), func(a *app.App) error {
				return flags.settle(cmd.Context(), a, a.Bank.UpdateCompanyInformationForBankAccount(info), keys.ReimbursementAccount)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&info.CompanyName, "name", "", "Company name")
	f.StringVar(&info.AddressStreet, "street", "", "Street address")
	f.StringVar(&info.AddressCity, "city", "", "City")
	f.StringVar(&info.AddressState, "state", "", "State")
	f.StringVar(&info.AddressZipCode, "zip", "", "ZIP code")
	f.StringVar(&info.CompanyPhone, "phone", "", "Company phone")
	f.StringVar(&info.Website, "website", "", "Company website")
	f.StringVar(&info.CompanyTaxID, "tax-id", "", "Company tax ID")
	f.StringVar(&info.IncorporationType, "incorporation-type", "", "Incorporation type")
	f.StringVar(&info.IncorporationState, "incorporation-state", "", "Incorporation state")
	f.StringVar(&info.IncorporationDate, "incorporation-date", "", "Incorporation date (YYYY-MM-DD)")
	f.StringVar(&info.SetupType, "setup-type", "", "Setup type (plaid or manual)")
	f.StringVar(&info.PlaidAccountID, "plaid-account", "", "Plaid account ID")
	f.BoolVar(&savings, "savings", false, "Savings account")
	f.BoolVar(&cannabis, "no-cannabis", false, "Company has no connection to cannabis")
	cmd.MarkFlagRequired("name")
	return cmd
}

func bankDeleteCmd(flags *globalFlags) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a payment bank account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withApp(cmd.Context(), func(a *app.App) error {
				return flags.settle(cmd.Context(), a, a.Bank.DeletePaymentBankAccount(id), keys.BankAccountList)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Bank account ID")
	cmd.MarkFlagRequired("id")
	return cmd
}

func bankValidateCmd(flags *globalFlags) *cobra.Command {
	var (
		id   int64
		code string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a bank account with test transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withApp(cmd.Context(), func(a *app.App) error {
				return flags.settle(cmd.Context(), a, a.Bank.ValidateBankAccount(id, code), keys.ReimbursementAccount)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Bank account ID")
	cmd.Flags().StringVar(&code, "code", "", "Validation code")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("code")
	return cmd
}

func bankClearCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset personal bank account and Plaid state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Bank.ClearPersonalBankAccount(); err != nil {
					return err
				}
				if err := a.Bank.ClearPlaid(); err != nil {
					return err
				}
				for _, k := range []state.Key{keys.PersonalBankAccount, keys.PlaidData, keys.PlaidLinkToken} {
					if err := printKey(a.Store, k); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
