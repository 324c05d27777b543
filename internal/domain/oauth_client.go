package domain

import (
	"encoding/json"
	"time"
)

// OAuthClient is a registered OAuth client. Records are append-only:
// re-registration creates a new record and clients are never mutated in
// place or automatically destroyed.
type OAuthClient struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	ClientID     string    `gorm:"size:64;uniqueIndex;not null" json:"client_id"`
	ClientName   string    `gorm:"size:255;not null" json:"client_name"`
	RedirectURIs string    `gorm:"size:4096;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SetRedirectURIs stores the redirect URI list as its serialized column form.
func (c *OAuthClient) SetRedirectURIs(uris []string) error {
	raw, err := json.Marshal(uris)
	if err != nil {
		return err
	}
	c.RedirectURIs = string(raw)
	return nil
}

// RedirectURIList decodes the stored redirect URI column.
func (c *OAuthClient) RedirectURIList() ([]string, error) {
	var uris []string
	if err := json.Unmarshal([]byte(c.RedirectURIs), &uris); err != nil {
		return nil, err
	}
	return uris, nil
}
