package mockapi

import (
	"context"
	"strconv"
	"time"

	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/update"
)

// addPersonalBankAccount answers with the new account merged into the bank
// account list.
func (s *Server) addPersonalBankAccount(_ context.Context, req api.Request) *api.Response {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	accountNumber, _ := req.Params["accountNumber"].(string)
	entry := map[string]any{
		"bankAccountID": id,
		"accountData": map[string]any{
			"addressName":   req.Params["addressName"],
			"accountNumber": mask(accountNumber),
			"routingNumber": req.Params["routingNumber"],
			"bankName":      req.Params["bank"],
			"state":         "OPEN",
		},
	}
	return &api.Response{
		JSONCode: api.CodeSuccess,
		Updates: []update.Descriptor{
			update.Merge(keys.BankAccountList, map[string]any{strconv.FormatInt(id, 10): entry}),
		},
	}
}

// connectPolicy records the Intacct credentials on the policy.
func connectPolicy(_ context.Context, req api.Request) *api.Response {
	policyID, _ := req.Params["policyID"].(string)
	if policyID == "" {
		return &api.Response{JSONCode: 402, Message: "Missing policyID"}
	}
	return &api.Response{
		JSONCode: api.CodeSuccess,
		Updates: []update.Descriptor{
			update.Merge(keys.Policy.Member(policyID), map[string]any{
				"connections": map[string]any{
					"intacct": map[string]any{
						"config": map[string]any{
							"credentials": map[string]any{
								"companyID": req.Params["intacctCompanyID"],
								"userID":    req.Params["intacctUserID"],
							},
						},
						"lastSync": map[string]any{
							"isSuccessful":   true,
							"successfulDate": time.Now().UTC().Format(time.RFC3339),
						},
					},
				},
			}),
		},
	}
}

// mask keeps the last four digits of an account number.
func mask(number string) string {
	if len(number) <= 4 {
		return number
	}
	out := make([]byte, len(number))
	for i := range out {
		out[i] = 'X'
	}
	copy(out[len(out)-4:], number[len(number)-4:])
	return string(out)
}
