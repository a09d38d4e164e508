package toolserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/finledger/qbo-mcp/internal/qbo"
)

type addressInput struct {
	Line1      string `json:"line1,omitempty" jsonschema:"Street address line"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty" jsonschema:"State or province code"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a *addressInput) toPatch() map[string]any {
	out := make(map[string]any)
	if a.Line1 != "" {
		out["line1"] = a.Line1
	}
	if a.City != "" {
		out["city"] = a.City
	}
	if a.Region != "" {
		out["region"] = a.Region
	}
	if a.PostalCode != "" {
		out["postalCode"] = a.PostalCode
	}
	if a.Country != "" {
		out["country"] = a.Country
	}
	return out
}

type searchCustomersInput struct {
	DisplayName   string `json:"displayName,omitempty" jsonschema:"Prefix to match against customer display names"`
	ActiveOnly    bool   `json:"activeOnly,omitempty" jsonschema:"Only return active customers"`
	OrderBy       string `json:"orderBy,omitempty" jsonschema:"Field to order results by"`
	Descending    bool   `json:"descending,omitempty" jsonschema:"Sort in descending order"`
	StartPosition int    `json:"startPosition,omitempty" jsonschema:"1-based result offset (default 1)"`
	MaxResults    int    `json:"maxResults,omitempty" jsonschema:"Page size (default 20, max 1000)"`
}

type searchOutput struct {
	Count   int              `json:"count"`
	Results []map[string]any `json:"results"`
}

type getCustomerInput struct {
	ID string `json:"id" jsonschema:"Customer id"`
}

type customerOutput struct {
	Customer map[string]any `json:"customer"`
}

type createCustomerInput struct {
	DisplayName string        `json:"displayName" jsonschema:"Customer display name"`
	CompanyName string        `json:"companyName,omitempty"`
	Email       string        `json:"email,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Address     *addressInput `json:"address,omitempty" jsonschema:"Billing address"`
}

type updateCustomerInput struct {
	ID          string        `json:"id" jsonschema:"Customer id"`
	DisplayName *string       `json:"displayName,omitempty"`
	CompanyName *string       `json:"companyName,omitempty"`
	Email       *string       `json:"email,omitempty"`
	Phone       *string       `json:"phone,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
	Active      *bool         `json:"active,omitempty"`
	Address     *addressInput `json:"address,omitempty" jsonschema:"Billing address"`
	Sparse      *bool         `json:"sparse,omitempty" jsonschema:"Apply only the supplied fields (default true)"`
}

func (s *Server) registerCustomerTools() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "search_customers",
		Description: "Search QuickBooks customers by display-name prefix and active status, with paging.",
	}, s.handleSearchCustomers)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_customer",
		Description: "Fetch a single QuickBooks customer by id.",
	}, s.handleGetCustomer)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "create_customer",
		Description: "Create a new QuickBooks customer.",
	}, s.handleCreateCustomer)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "update_customer",
		Description: "Update fields on an existing QuickBooks customer. Only supplied fields change when sparse (the default).",
	}, s.handleUpdateCustomer)
}

func (s *Server) handleSearchCustomers(ctx context.Context, _ *mcpsdk.CallToolRequest, input searchCustomersInput) (*mcpsdk.CallToolResult, searchOutput, error) {
	results, err := s.client.FindCustomers(ctx, qbo.QueryOptions{
		NamePrefix:    input.DisplayName,
		ActiveOnly:    input.ActiveOnly,
		OrderBy:       input.OrderBy,
		Descending:    input.Descending,
		StartPosition: input.StartPosition,
		MaxResults:    input.MaxResults,
	})
	if err != nil {
		return nil, searchOutput{}, err
	}
	out := searchOutput{Count: len(results), Results: results}
	return textResult(out), out, nil
}

func (s *Server) handleGetCustomer(ctx context.Context, _ *mcpsdk.CallToolRequest, input getCustomerInput) (*mcpsdk.CallToolResult, customerOutput, error) {
	if input.ID == "" {
		return nil, customerOutput{}, errMissing("id")
	}
	rec, err := s.client.GetCustomer(ctx, input.ID)
	if err != nil {
		return nil, customerOutput{}, err
	}
	out := customerOutput{Customer: rec}
	return textResult(out), out, nil
}

func (s *Server) handleCreateCustomer(ctx context.Context, _ *mcpsdk.CallToolRequest, input createCustomerInput) (*mcpsdk.CallToolResult, customerOutput, error) {
	if input.DisplayName == "" {
		return nil, customerOutput{}, errMissing("displayName")
	}

	fields := map[string]any{"displayName": input.DisplayName}
	if input.CompanyName != "" {
		fields["companyName"] = input.CompanyName
	}
	if input.Email != "" {
		fields["email"] = input.Email
	}
	if input.Phone != "" {
		fields["phone"] = input.Phone
	}
	if input.Notes != "" {
		fields["notes"] = input.Notes
	}
	if input.Address != nil {
		fields["address"] = input.Address.toPatch()
	}

	rec, err := s.client.CreateCustomer(ctx, fields)
	if err != nil {
		return nil, customerOutput{}, err
	}
	out := customerOutput{Customer: rec}
	return textResult(out), out, nil
}

func (s *Server) handleUpdateCustomer(ctx context.Context, _ *mcpsdk.CallToolRequest, input updateCustomerInput) (*mcpsdk.CallToolResult, customerOutput, error) {
	if input.ID == "" {
		return nil, customerOutput{}, errMissing("id")
	}

	patch := map[string]any{}
	if input.DisplayName != nil {
		patch["displayName"] = *input.DisplayName
	}
	if input.CompanyName != nil {
		patch["companyName"] = *input.CompanyName
	}
	if input.Email != nil {
		patch["email"] = *input.Email
	}
	if input.Phone != nil {
		patch["phone"] = *input.Phone
	}
	if input.Notes != nil {
		patch["notes"] = *input.Notes
	}
	if input.Active != nil {
		patch["active"] = *input.Active
	}
	if input.Address != nil {
		patch["address"] = input.Address.toPatch()
	}
	if len(patch) == 0 {
		return nil, customerOutput{}, errMissing("at least one field to update")
	}

	sparse := true
	if input.Sparse != nil {
		sparse = *input.Sparse
	}

	rec, err := s.client.UpdateCustomer(ctx, input.ID, patch, sparse)
	if err != nil {
		return nil, customerOutput{}, err
	}
	out := customerOutput{Customer: rec}
	return textResult(out), out, nil
}
