package tokenstore

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBundle_UnmarshalCapturesExtras(t *testing.T) {
	raw := `{
		"access_token": "at-1",
		"refresh_token": "rt-1",
		"token_type": "bearer",
		"expires_in": 3600,
		"x_refresh_token_expires_in": 8726400,
		"id_token": "id-1",
		"intuit_tid": "trace-abc"
	}`

	var b Bundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if b.AccessToken != "at-1" {
		t.Errorf("unexpected access token: %s", b.AccessToken)
	}
	if b.RefreshToken != "rt-1" {
		t.Errorf("unexpected refresh token: %s", b.RefreshToken)
	}
	if b.ExpiresIn != 3600 {
		t.Errorf("unexpected expires_in: %d", b.ExpiresIn)
	}
	if b.XRefreshTokenExpiresIn != 8726400 {
		t.Errorf("unexpected x_refresh_token_expires_in: %d", b.XRefreshTokenExpiresIn)
	}
	if got, ok := b.Extra["intuit_tid"].(string); !ok || got != "trace-abc" {
		t.Errorf("provider field not captured in Extra: %v", b.Extra)
	}
}

func TestBundle_RoundTripPreservesExtras(t *testing.T) {
	b := &Bundle{
		AccessToken: "at-1",
		TokenType:   "bearer",
		ObtainedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Extra:       map[string]any{"realmId": "1234"},
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Bundle
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.AccessToken != "at-1" || back.TokenType != "bearer" {
		t.Errorf("known fields lost in round trip: %+v", back)
	}
	if !back.ObtainedAt.Equal(b.ObtainedAt) {
		t.Errorf("obtained_at lost: %v", back.ObtainedAt)
	}
	if got, ok := back.Extra["realmId"].(string); !ok || got != "1234" {
		t.Errorf("extra field lost: %v", back.Extra)
	}
}

func TestBundle_MergeNewFieldsWin(t *testing.T) {
	old := &Bundle{
		AccessToken:            "at-old",
		RefreshToken:           "rt-old",
		TokenType:              "bearer",
		ExpiresIn:              3600,
		XRefreshTokenExpiresIn: 8726400,
		IDToken:                "id-old",
		Extra:                  map[string]any{"realmId": "1234", "keep": "me"},
	}
	fresh := &Bundle{
		AccessToken:  "at-new",
		RefreshToken: "rt-new", // rotated
		ExpiresIn:    3600,
		ObtainedAt:   time.Now().UTC(),
		Extra:        map[string]any{"realmId": "5678"},
	}

	merged := old.Merge(fresh)

	if merged.AccessToken != "at-new" {
		t.Errorf("access token not replaced: %s", merged.AccessToken)
	}
	if merged.RefreshToken != "rt-new" {
		t.Errorf("rotated refresh token not applied: %s", merged.RefreshToken)
	}
	// Fields absent from the refresh response survive.
	if merged.TokenType != "bearer" {
		t.Errorf("token_type lost in merge: %s", merged.TokenType)
	}
	if merged.IDToken != "id-old" {
		t.Errorf("id_token lost in merge: %s", merged.IDToken)
	}
	if merged.XRefreshTokenExpiresIn != 8726400 {
		t.Errorf("x_refresh_token_expires_in lost in merge: %d", merged.XRefreshTokenExpiresIn)
	}
	if got := merged.Extra["keep"]; got != "me" {
		t.Errorf("old extra lost in merge: %v", got)
	}
	if got := merged.Extra["realmId"]; got != "5678" {
		t.Errorf("fresh extra did not win: %v", got)
	}

	// Merge must not mutate its inputs.
	if old.AccessToken != "at-old" || old.Extra["realmId"] != "1234" {
		t.Errorf("merge mutated receiver: %+v", old)
	}
}

func TestBundle_Expired(t *testing.T) {
	obtained := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := &Bundle{AccessToken: "at", ExpiresIn: 3600, ObtainedAt: obtained}

	if b.Expired(obtained.Add(30 * time.Minute)) {
		t.Error("token reported expired well before expiry")
	}
	if !b.Expired(obtained.Add(2 * time.Hour)) {
		t.Error("token not reported expired after expiry")
	}

	// No expiry metadata means we can't tell; treat as not expired.
	empty := &Bundle{AccessToken: "at"}
	if empty.Expired(time.Now()) {
		t.Error("bundle without expiry metadata reported expired")
	}
}
