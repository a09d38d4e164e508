package qbo

import (
	"context"
	"fmt"
	"net/url"
)

// EntityKind describes how an entity appears on the wire: its collection
// endpoint, the wrapper field QuickBooks nests records under, and the
// field the query builder uses for name matching.
type EntityKind struct {
	Endpoint  string
	Wrapper   string
	NameField string
}

var (
	Customer = EntityKind{Endpoint: "customer", Wrapper: "Customer", NameField: "DisplayName"}
	Account  = EntityKind{Endpoint: "account", Wrapper: "Account", NameField: "Name"}
)

// Get fetches a single entity by id and unwraps it.
func (c *Client) Get(ctx context.Context, kind EntityKind, id string) (map[string]any, error) {
	resp, err := c.Do(ctx, "GET", kind.Endpoint+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	rec, ok := resp[kind.Wrapper].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response missing %s wrapper field", kind.Wrapper)
	}
	return rec, nil
}

// Find runs a structured search and returns the matching records. An
// empty result set is a valid, empty slice.
func (c *Client) Find(ctx context.Context, kind EntityKind, opts QueryOptions) ([]map[string]any, error) {
	q := BuildQuery(kind, opts)
	resp, err := c.Do(ctx, "GET", "query?query="+url.QueryEscape(q), nil, nil)
	if err != nil {
		return nil, err
	}

	qr, ok := resp["QueryResponse"].(map[string]any)
	if !ok {
		return []map[string]any{}, nil
	}
	raw, ok := qr[kind.Wrapper].([]any)
	if !ok {
		return []map[string]any{}, nil
	}

	records := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Create posts a new entity and returns the created record.
func (c *Client) Create(ctx context.Context, kind EntityKind, fields map[string]any) (map[string]any, error) {
	resp, err := c.Do(ctx, "POST", kind.Endpoint, fields, nil)
	if err != nil {
		return nil, err
	}
	if rec, ok := resp[kind.Wrapper].(map[string]any); ok {
		return rec, nil
	}
	return resp, nil
}

// FindCustomers searches customers by display-name prefix and active flag.
func (c *Client) FindCustomers(ctx context.Context, opts QueryOptions) ([]map[string]any, error) {
	return c.Find(ctx, Customer, opts)
}

// GetCustomer fetches a customer by id.
func (c *Client) GetCustomer(ctx context.Context, id string) (map[string]any, error) {
	return c.Get(ctx, Customer, id)
}

// CreateCustomer creates a customer from semantic field names.
func (c *Client) CreateCustomer(ctx context.Context, fields map[string]any) (map[string]any, error) {
	return c.Create(ctx, Customer, MapCustomerFields(fields))
}

// UpdateCustomer applies a partial update to a customer using the
// optimistic-concurrency protocol.
func (c *Client) UpdateCustomer(ctx context.Context, id string, patch map[string]any, sparse bool) (map[string]any, error) {
	return c.updateEntity(ctx, Customer, id, MapCustomerFields(patch), sparse)
}

// FindAccounts searches accounts by name prefix and active flag.
func (c *Client) FindAccounts(ctx context.Context, opts QueryOptions) ([]map[string]any, error) {
	return c.Find(ctx, Account, opts)
}

// GetAccount fetches an account by id.
func (c *Client) GetAccount(ctx context.Context, id string) (map[string]any, error) {
	return c.Get(ctx, Account, id)
}

// CreateAccount creates an account from semantic field names.
func (c *Client) CreateAccount(ctx context.Context, fields map[string]any) (map[string]any, error) {
	return c.Create(ctx, Account, MapAccountFields(fields))
}

// UpdateAccount applies a partial update to an account using the
// optimistic-concurrency protocol.
func (c *Client) UpdateAccount(ctx context.Context, id string, patch map[string]any, sparse bool) (map[string]any, error) {
	return c.updateEntity(ctx, Account, id, MapAccountFields(patch), sparse)
}
