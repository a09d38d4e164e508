package toolserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/finledger/qbo-mcp/internal/qbo"
)

type searchAccountsInput struct {
	Name          string `json:"name,omitempty" jsonschema:"Prefix to match against account names"`
	ActiveOnly    bool   `json:"activeOnly,omitempty" jsonschema:"Only return active accounts"`
	StartPosition int    `json:"startPosition,omitempty" jsonschema:"1-based result offset (default 1)"`
	MaxResults    int    `json:"maxResults,omitempty" jsonschema:"Page size (default 20, max 1000)"`
}

type getAccountInput struct {
	ID string `json:"id" jsonschema:"Account id"`
}

type accountOutput struct {
	Account map[string]any `json:"account"`
}

type createAccountInput struct {
	Name           string `json:"name" jsonschema:"Account name"`
	AccountType    string `json:"accountType,omitempty" jsonschema:"QuickBooks account type, e.g. Expense or Bank"`
	AccountSubType string `json:"accountSubType,omitempty"`
	Description    string `json:"description,omitempty"`
}

type updateAccountInput struct {
	ID             string  `json:"id" jsonschema:"Account id"`
	Name           *string `json:"name,omitempty"`
	AccountType    *string `json:"accountType,omitempty"`
	AccountSubType *string `json:"accountSubType,omitempty"`
	Description    *string `json:"description,omitempty"`
	Active         *bool   `json:"active,omitempty"`
	Sparse         *bool   `json:"sparse,omitempty" jsonschema:"Apply only the supplied fields (default true)"`
}

func errMissing(what string) error {
	return fmt.Errorf("%s is required", what)
}

func (s *Server) registerAccountTools() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "search_accounts",
		Description: "Search QuickBooks accounts by name prefix and active status, with paging.",
	}, s.handleSearchAccounts)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_account",
		Description: "Fetch a single QuickBooks account by id.",
	}, s.handleGetAccount)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "create_account",
		Description: "Create a new QuickBooks account.",
	}, s.handleCreateAccount)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "update_account",
		Description: "Update fields on an existing QuickBooks account. Only supplied fields change when sparse (the default).",
	}, s.handleUpdateAccount)
}

func (s *Server) handleSearchAccounts(ctx context.Context, _ *mcpsdk.CallToolRequest, input searchAccountsInput) (*mcpsdk.CallToolResult, searchOutput, error) {
	results, err := s.client.FindAccounts(ctx, qbo.QueryOptions{
		NamePrefix:    input.Name,
		ActiveOnly:    input.ActiveOnly,
		StartPosition: input.StartPosition,
		MaxResults:    input.MaxResults,
	})
	if err != nil {
		return nil, searchOutput{}, err
	}
	out := searchOutput{Count: len(results), Results: results}
	return textResult(out), out, nil
}

func (s *Server) handleGetAccount(ctx context.Context, _ *mcpsdk.CallToolRequest, input getAccountInput) (*mcpsdk.CallToolResult, accountOutput, error) {
	if input.ID == "" {
		return nil, accountOutput{}, errMissing("id")
	}
	rec, err := s.client.GetAccount(ctx, input.ID)
	if err != nil {
		return nil, accountOutput{}, err
	}
	out := accountOutput{Account: rec}
	return textResult(out), out, nil
}

func (s *Server) handleCreateAccount(ctx context.Context, _ *mcpsdk.CallToolRequest, input createAccountInput) (*mcpsdk.CallToolResult, accountOutput, error) {
	if input.Name == "" {
		return nil, accountOutput{}, errMissing("name")
	}

	fields := map[string]any{"name": input.Name}
	if input.AccountType != "" {
		fields["accountType"] = input.AccountType
	}
	if input.AccountSubType != "" {
		fields["accountSubType"] = input.AccountSubType
	}
	if input.Description != "" {
		fields["description"] = input.Description
	}

	rec, err := s.client.CreateAccount(ctx, fields)
	if err != nil {
		return nil, accountOutput{}, err
	}
	out := accountOutput{Account: rec}
	return textResult(out), out, nil
}

func (s *Server) handleUpdateAccount(ctx context.Context, _ *mcpsdk.CallToolRequest, input updateAccountInput) (*mcpsdk.CallToolResult, accountOutput, error) {
	if input.ID == "" {
		return nil, accountOutput{}, errMissing("id")
	}

	patch := map[string]any{}
	if input.Name != nil {
		patch["name"] = *input.Name
	}
	if input.AccountType != nil {
		patch["accountType"] = *input.AccountType
	}
	if input.AccountSubType != nil {
		patch["accountSubType"] = *input.AccountSubType
	}
	if input.Description != nil {
		patch["description"] = *input.Description
	}
	if input.Active != nil {
		patch["active"] = *input.Active
	}
	if len(patch) == 0 {
		return nil, accountOutput{}, errMissing("at least one field to update")
	}

	sparse := true
	if input.Sparse != nil {
		sparse = *input.Sparse
	}

	rec, err := s.client.UpdateAccount(ctx, input.ID, patch, sparse)
	if err != nil {
		return nil, accountOutput{}, err
	}
	out := accountOutput{Account: rec}
	return textResult(out), out, nil
}
