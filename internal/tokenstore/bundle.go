package tokenstore

import (
	"encoding/json"
	"time"
)

// Bundle is the credential set returned by the token endpoint, plus the
// time it was obtained. It is replaced wholesale on authorization and
// merged on refresh.
type Bundle struct {
	AccessToken            string
	RefreshToken           string
	TokenType              string
	ExpiresIn              int64
	XRefreshTokenExpiresIn int64
	IDToken                string
	ObtainedAt             time.Time

	// Extra holds provider fields we don't model explicitly.
	Extra map[string]any
}

// MarshalJSON flattens known fields and extras into a single object.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Extra)+7)
	for k, v := range b.Extra {
		out[k] = v
	}
	out["access_token"] = b.AccessToken
	if b.RefreshToken != "" {
		out["refresh_token"] = b.RefreshToken
	}
	if b.TokenType != "" {
		out["token_type"] = b.TokenType
	}
	if b.ExpiresIn != 0 {
		out["expires_in"] = b.ExpiresIn
	}
	if b.XRefreshTokenExpiresIn != 0 {
		out["x_refresh_token_expires_in"] = b.XRefreshTokenExpiresIn
	}
	if b.IDToken != "" {
		out["id_token"] = b.IDToken
	}
	if !b.ObtainedAt.IsZero() {
		out["obtained_at"] = b.ObtainedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a token-endpoint (or persisted) object into known
// fields and extras.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Bundle{}
	for k, v := range raw {
		switch k {
		case "access_token":
			if err := json.Unmarshal(v, &b.AccessToken); err != nil {
				return err
			}
		case "refresh_token":
			if err := json.Unmarshal(v, &b.RefreshToken); err != nil {
				return err
			}
		case "token_type":
			if err := json.Unmarshal(v, &b.TokenType); err != nil {
				return err
			}
		case "expires_in":
			if err := json.Unmarshal(v, &b.ExpiresIn); err != nil {
				return err
			}
		case "x_refresh_token_expires_in":
			if err := json.Unmarshal(v, &b.XRefreshTokenExpiresIn); err != nil {
				return err
			}
		case "id_token":
			if err := json.Unmarshal(v, &b.IDToken); err != nil {
				return err
			}
		case "obtained_at":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return err
			}
			b.ObtainedAt = t
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			if b.Extra == nil {
				b.Extra = make(map[string]any)
			}
			b.Extra[k] = val
		}
	}
	return nil
}

// Merge overlays fresh onto b: fresh non-zero fields win, fields absent
// from fresh survive, extras merge key-wise. Neither input is mutated.
func (b *Bundle) Merge(fresh *Bundle) *Bundle {
	merged := *b
	merged.Extra = make(map[string]any, len(b.Extra)+len(fresh.Extra))
	for k, v := range b.Extra {
		merged.Extra[k] = v
	}
	for k, v := range fresh.Extra {
		merged.Extra[k] = v
	}

	if fresh.AccessToken != "" {
		merged.AccessToken = fresh.AccessToken
	}
	if fresh.RefreshToken != "" {
		merged.RefreshToken = fresh.RefreshToken
	}
	if fresh.TokenType != "" {
		merged.TokenType = fresh.TokenType
	}
	if fresh.ExpiresIn != 0 {
		merged.ExpiresIn = fresh.ExpiresIn
	}
	if fresh.XRefreshTokenExpiresIn != 0 {
		merged.XRefreshTokenExpiresIn = fresh.XRefreshTokenExpiresIn
	}
	if fresh.IDToken != "" {
		merged.IDToken = fresh.IDToken
	}
	if !fresh.ObtainedAt.IsZero() {
		merged.ObtainedAt = fresh.ObtainedAt
	}
	return &merged
}

// ExpiresAt returns when the access token expires, or the zero time if
// the bundle carries no expiry metadata.
func (b *Bundle) ExpiresAt() time.Time {
	if b.ObtainedAt.IsZero() || b.ExpiresIn == 0 {
		return time.Time{}
	}
	return b.ObtainedAt.Add(time.Duration(b.ExpiresIn) * time.Second)
}

// Expired reports whether the access token is past (or within a minute
// of) its advertised expiry. Diagnostic only: refresh is driven by 401
// responses, not by the clock.
func (b *Bundle) Expired(now time.Time) bool {
	exp := b.ExpiresAt()
	if exp.IsZero() {
		return false
	}
	return now.Add(1 * time.Minute).After(exp)
}
