// Package bankaccount builds and issues bank account commands: adding a
// personal account through Plaid, deleting a payment account, validating a
// business account and the company step of verified business bank account
// setup.
//
// Company information is merged over the ACH data of the account being set
// up. ACHTracker keeps that data current by subscribing to
// reimbursementAccount; call Start before issuing company updates and Stop
// when done.
package bankaccount
