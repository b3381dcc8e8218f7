package auth

import (
	"encoding/json"
	"fmt"
)

// Identity is the minimal account-identifying record derived from a
// signed-in session. Persisted by the IdentityStore collaborator, never
// by the flow controller's own storage.
type Identity struct {
	ExternalID string
	Nickname   string
	AvatarURL  string
	AccountID  string
}

// IdentityStore is the external persistence collaborator. Upserts are
// keyed by account id.
type IdentityStore interface {
	UpsertIdentity(identity Identity) error
	DeleteAccount(accountID string) error
}

// localStorage record the creator site keeps for the signed-in user.
type siteUserRecord struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar"`
	RedID      string `json:"redId"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
}

// parseSiteUserRecord decodes the USER_INFO_FOR_BIZ localStorage value.
func parseSiteUserRecord(raw string) (*siteUserRecord, error) {
	var record siteUserRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}
	return &record, nil
}
