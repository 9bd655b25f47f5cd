package core

import "time"

// Grant is a token issued by the provider's OAuth2 endpoint
type Grant struct {
	AccessToken string        // Opaque bearer credential
	ExpiresIn   time.Duration // Lifetime reported by the provider
}

// AccessToken is a cached bearer credential
type AccessToken struct {
	Value     string    // Opaque bearer credential
	ExpiresAt time.Time // Instant after which the value must not be reused
}

// ValidAt reports whether the token may still be presented at now
func (t AccessToken) ValidAt(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}
