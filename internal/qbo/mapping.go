package qbo

// Field mapping from the tool surface's semantic names to the QuickBooks
// schema. Only present keys are translated; the caller's map is never
// mutated. Unknown keys are dropped rather than passed through, so the
// write body stays within the vocabulary the tools advertise.

// MapCustomerFields translates a semantic customer patch.
func MapCustomerFields(patch map[string]any) map[string]any {
	out := make(map[string]any, len(patch))
	for key, val := range patch {
		switch key {
		case "displayName":
			out["DisplayName"] = val
		case "companyName":
			out["CompanyName"] = val
		case "email":
			out["PrimaryEmailAddr"] = map[string]any{"Address": val}
		case "phone":
			out["PrimaryPhone"] = map[string]any{"FreeFormNumber": val}
		case "notes":
			out["Notes"] = val
		case "active":
			out["Active"] = val
		case "address":
			if addr, ok := val.(map[string]any); ok {
				out["BillAddr"] = mapAddress(addr)
			}
		}
	}
	return out
}

// MapAccountFields translates a semantic account patch.
func MapAccountFields(patch map[string]any) map[string]any {
	out := make(map[string]any, len(patch))
	for key, val := range patch {
		switch key {
		case "name":
			out["Name"] = val
		case "accountType":
			out["AccountType"] = val
		case "accountSubType":
			out["AccountSubType"] = val
		case "description":
			out["Description"] = val
		case "active":
			out["Active"] = val
		}
	}
	return out
}

func mapAddress(addr map[string]any) map[string]any {
	out := make(map[string]any, len(addr))
	for key, val := range addr {
		switch key {
		case "line1":
			out["Line1"] = val
		case "city":
			out["City"] = val
		case "region":
			out["CountrySubDivisionCode"] = val
		case "postalCode":
			out["PostalCode"] = val
		case "country":
			out["Country"] = val
		}
	}
	return out
}
