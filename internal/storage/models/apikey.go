package models

import "time"

// ClientAPIKey represents a modelbench client API key. The authenticated key
// supplies the caller identity (its ID) and role checked by the quota guard.
type ClientAPIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`          // Argon2id hash (never exposed in JSON)
	KeyPrefix  string     `json:"key_prefix"` // First 11 chars (e.g., "mb_a1B2c3D4")
	Role       string     `json:"role"`       // quota role, e.g. "tester", "analyst", "admin"
	Scopes     []string   `json:"scopes"`     // ["test", "admin"]
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ClientAPIKeyPreview is a safe representation (no hash)
type ClientAPIKeyPreview struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	Role       string     `json:"role"`
	Scopes     []string   `json:"scopes"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ToPreview converts ClientAPIKey to safe preview
func (k *ClientAPIKey) ToPreview() *ClientAPIKeyPreview {
	return &ClientAPIKeyPreview{
		ID:         k.ID,
		Name:       k.Name,
		KeyPrefix:  k.KeyPrefix,
		Role:       k.Role,
		Scopes:     k.Scopes,
		IsActive:   k.IsActive,
		LastUsedAt: k.LastUsedAt,
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
	}
}

// HasScope checks if the key has a specific scope
func (k *ClientAPIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IsExpired checks if the key has expired
func (k *ClientAPIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}
