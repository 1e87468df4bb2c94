package bankaccount

// CompanyInformation is the company step of business bank account setup.
// Empty strings and nil pointers are left out of the request so the
// tracked ACH data shows through.
type CompanyInformation struct {
	CompanyName               string
	AddressStreet             string
	AddressCity               string
	AddressState              string
	AddressZipCode            string
	CompanyPhone              string
	Website                   string
	CompanyTaxID              string
	IncorporationType         string
	IncorporationState        string
	IncorporationDate         string
	HasNoConnectionToCannabis *bool
	IsSavings                 *bool
	SetupType                 string
	PlaidAccountID            string
}

// Fields returns the supplied fields keyed by their parameter names.
func (c CompanyInformation) Fields() map[string]any {
	out := make(map[string]any)
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("companyName", c.CompanyName)
	set("addressStreet", c.AddressStreet)
	set("addressCity", c.AddressCity)
	set("addressState", c.AddressState)
	set("addressZipCode", c.AddressZipCode)
	set("companyPhone", c.CompanyPhone)
	set("website", c.Website)
	set("companyTaxID", c.CompanyTaxID)
	set("incorporationType", c.IncorporationType)
	set("incorporationState", c.IncorporationState)
	set("incorporationDate", c.IncorporationDate)
	set("setupType", c.SetupType)
	set("plaidAccountID", c.PlaidAccountID)
	if c.HasNoConnectionToCannabis != nil {
		out["hasNoConnectionToCannabis"] = *c.HasNoConnectionToCannabis
	}
	if c.IsSavings != nil {
		out["isSavings"] = *c.IsSavings
	}
	return out
}

// MergeWithACHData overlays fields on the tracked ACH data.
//
// enableCardAfterVerified is always true. A supplied isSavings is coerced to
// a boolean. When no setupType results, it is plaid if a Plaid account id is
// present and manual otherwise.
func MergeWithACHData(achData, fields map[string]any) map[string]any {
	out := make(map[string]any, len(achData)+len(fields)+1)
	for k, v := range achData {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	out["enableCardAfterVerified"] = true

	if v, ok := fields["isSavings"]; ok {
		out["isSavings"] = truthy(v)
	}
	if !truthy(out["setupType"]) {
		if truthy(out["plaidAccountID"]) {
			out["setupType"] = SetupTypePlaid
		} else {
			out["setupType"] = SetupTypeManual
		}
	}
	return out
}

// truthy treats nil, false, zero and empty strings as false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}
