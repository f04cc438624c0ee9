package http

import "time"

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime" example:"1h2m3s"`
	Version string        `json:"version" example:"0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database        string     `json:"database" example:"ok"`
	Keys            string     `json:"keys,omitempty" example:"ok"`
	KeyCount        int        `json:"key_count,omitempty" example:"2"`
	KeysRefreshedAt *time.Time `json:"keys_refreshed_at,omitempty"`
}

// SessionResponse summarises the caller's session.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"user_id,omitempty" example:"7f1c6f8a-2a4e-4a57-9a57-6a1c2b3d4e5f"`
	Email         string     `json:"email,omitempty" example:"alice@example.com"`
	Role          string     `json:"role" example:"member"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// VerdictEvent is the data of one "verdict" server-sent event.
type VerdictEvent struct {
	Decision   string `json:"decision" example:"allow" enums:"pending,allow,deny"`
	Redirect   bool   `json:"redirect"`
	Location   string `json:"location,omitempty" example:"/signin?next=%2Fdashboard"`
	Capability string `json:"capability" example:"authenticated"`
	Role       string `json:"role" example:"member"`
	UserID     string `json:"user_id,omitempty"`
}
