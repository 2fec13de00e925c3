package auth

import (
	"encoding/json"
)

// Stored claim attribute names. ClaimKeyAttribute doubles as the claim
// store's primary-key attribute.
const (
	ClaimKeyAttribute          = "key"
	ClaimTTLAttribute          = "ttl"
	ClaimRefreshTokenAttribute = "refresh_token"
)

// Claim is the durable, at-rest record binding a live bearer token to a user
// snapshot. The user snapshot is denormalized on purpose: validating a token
// must never require a round trip to the primary user store.
//
// Claims are immutable snapshots. They are created on authentication or
// refresh, read on every guarded request, deleted on logout, and never
// patched in place; refresh writes a new claim and deletes the old one.
//
// The stored record is an open schema: fields this version does not know
// about are preserved in Extra and written back out merged, so claims remain
// forward compatible with store-resident attributes.
type Claim struct {
	Token               *Token         `json:"token,omitempty"`
	User                map[string]any `json:"user"`
	Privileges          []string       `json:"privileges"`
	Settings            []string       `json:"settings"`
	UnreadNotifications int            `json:"unread_notifications"`

	// Extra carries unrecognized stored attributes.
	Extra map[string]any `json:"-"`
}

// Key is the claim store primary key: the access token string. Empty when
// the claim has no token.
func (c *Claim) Key() string {
	if c == nil || c.Token == nil {
		return ""
	}
	return c.Token.AccessToken
}

// TTL is the claim's expiry as epoch seconds, taken from the token. Zero when
// the claim has no token or the token never expires.
func (c *Claim) TTL() int64 {
	if c == nil || c.Token == nil {
		return 0
	}
	return c.Token.ExpiresAt
}

// RefreshToken returns the refresh token the claim's token belongs to, or ""
// when there is none.
func (c *Claim) RefreshToken() string {
	if c == nil || c.Token == nil {
		return ""
	}
	return c.Token.RefreshToken
}

// ToMap renders the claim in its stored shape: known fields, the computed
// key and ttl attributes, and any preserved extra attributes merged back in.
// Known fields win over extras on name collision.
func (c *Claim) ToMap() map[string]any {
	m := make(map[string]any, len(c.Extra)+7)

	for k, v := range c.Extra {
		m[k] = v
	}

	if c.Token != nil {
		m["token"] = c.Token.ToMap()
	}

	user := c.User
	if user == nil {
		user = map[string]any{}
	}
	m["user"] = user

	m["privileges"] = stringSliceOrEmpty(c.Privileges)
	m["settings"] = stringSliceOrEmpty(c.Settings)
	m["unread_notifications"] = c.UnreadNotifications

	if key := c.Key(); key != "" {
		m[ClaimKeyAttribute] = key
	}
	if ttl := c.TTL(); ttl != 0 {
		m[ClaimTTLAttribute] = ttl
	}
	// denormalized so key/value backends can index the refresh chain
	if rt := c.RefreshToken(); rt != "" {
		m[ClaimRefreshTokenAttribute] = rt
	}

	return m
}

// MarshalJSON serializes the merged stored shape.
func (c *Claim) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

// UnmarshalJSON rebuilds a claim from its stored shape, keeping unknown
// attributes in Extra.
func (c *Claim) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = *ClaimFromMap(m)
	return nil
}

// ClaimFromMap deserializes a stored record into a Claim. Unknown attributes
// are tolerated and preserved; the computed key and ttl attributes are
// dropped since they derive from the token.
func ClaimFromMap(m map[string]any) *Claim {
	c := &Claim{
		User:       map[string]any{},
		Privileges: []string{},
		Settings:   []string{},
	}

	for k, v := range m {
		switch k {
		case "token":
			if tm, ok := v.(map[string]any); ok {
				c.Token = TokenFromMap(tm)
			}
		case "user":
			if um, ok := v.(map[string]any); ok {
				c.User = um
			}
		case "privileges":
			c.Privileges = stringSlice(v)
		case "settings":
			c.Settings = stringSlice(v)
		case "unread_notifications":
			c.UnreadNotifications = int(int64Value(v))
		case ClaimKeyAttribute, ClaimTTLAttribute, ClaimRefreshTokenAttribute:
			// computed, recomputed from the token
		default:
			if c.Extra == nil {
				c.Extra = map[string]any{}
			}
			c.Extra[k] = v
		}
	}

	return c
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return []string{}
}

func stringSliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
