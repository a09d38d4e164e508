package qbo

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// updateEntity performs the read-modify-write sequence QuickBooks
// requires for mutations: fetch the current SyncToken, build a write
// body around it, and issue a conditional update. The SyncToken always
// comes from the fetch done inside this call, never from a cache, so a
// concurrent external mutation surfaces as a conflict from the API
// rather than being silently overwritten. Version conflicts propagate
// verbatim; there is no second fetch-patch-write cycle.
func (c *Client) updateEntity(ctx context.Context, kind EntityKind, id string, mapped map[string]any, sparse bool) (map[string]any, error) {
	resp, err := c.Do(ctx, "GET", kind.Endpoint+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		var apiErr *RemoteAPIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest) {
			return nil, &EntityNotFoundError{Kind: kind.Endpoint, ID: id}
		}
		return nil, err
	}

	rec, ok := resp[kind.Wrapper].(map[string]any)
	if !ok {
		return nil, &EntityNotFoundError{Kind: kind.Endpoint, ID: id}
	}
	entityID, ok := rec["Id"].(string)
	if !ok || entityID == "" {
		return nil, &EntityNotFoundError{Kind: kind.Endpoint, ID: id}
	}
	syncToken, ok := rec["SyncToken"].(string)
	if !ok {
		return nil, &EntityNotFoundError{Kind: kind.Endpoint, ID: id}
	}

	body := make(map[string]any, len(mapped)+3)
	body["Id"] = entityID
	body["SyncToken"] = syncToken
	if sparse {
		body["sparse"] = true
	}
	for k, v := range mapped {
		if k == "Id" || k == "SyncToken" || k == "sparse" {
			continue
		}
		body[k] = v
	}

	log.Debug().
		Str("kind", kind.Endpoint).
		Str("id", entityID).
		Str("syncToken", syncToken).
		Bool("sparse", sparse).
		Msg("issuing conditional update")

	updated, err := c.Do(ctx, "POST", kind.Endpoint+"?operation=update", body, nil)
	if err != nil {
		return nil, err
	}
	if rec, ok := updated[kind.Wrapper].(map[string]any); ok {
		return rec, nil
	}
	return updated, nil
}
