package api

// Command is the name of a remote write command.
type Command string

// Write commands.
const (
	CommandAddPersonalBankAccount                 Command = "AddPersonalBankAccount"
	CommandDeletePaymentBankAccount               Command = "DeletePaymentBankAccount"
	CommandValidateBankAccountWithTransactions    Command = "ValidateBankAccountWithTransactions"
	CommandUpdateCompanyInformationForBankAccount Command = "UpdateCompanyInformationForBankAccount"
	CommandConnectPolicyToSageIntacct             Command = "ConnectPolicyToSageIntacct"
	CommandUpdatePolicyConnectionConfig           Command = "UpdatePolicyConnectionConfig"
)

// String returns the command name.
func (c Command) String() string {
	return string(c)
}

// Commands lists every known write command.
func Commands() []Command {
	return []Command{
		CommandAddPersonalBankAccount,
		CommandDeletePaymentBankAccount,
		CommandValidateBankAccountWithTransactions,
		CommandUpdateCompanyInformationForBankAccount,
		CommandConnectPolicyToSageIntacct,
		CommandUpdatePolicyConnectionConfig,
	}
}
