package store

import "time"

const (
	RoleAdmin       = "ADMIN"
	RoleSeniorAgent = "SENIOR_AGENT"
	RoleAgent       = "AGENT"
	RoleViewer      = "VIEWER"
)

const (
	AgentStatusOnline    = "online"
	AgentStatusOffline   = "offline"
	AgentStatusOnMission = "on-mission"
)

const (
	ActivitySuccess = "success"
	ActivityFailed  = "failed"
	ActivityBlocked = "blocked"
)

// SystemActor marks records written by the abuse-control core rather than a
// human administrator.
const SystemActor = "system"

type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`

	// OTP state; mutated on every login attempt.
	OTPCode      string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	OTPAttempts  int        `json:"-"`

	// Session state; at most one active fingerprint per user.
	SessionToken     string     `json:"-"`
	SessionCreatedAt *time.Time `json:"session_created_at,omitempty"`
	SessionDevice    string     `json:"session_device,omitempty"`

	AgentID   *int64    `json:"agent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LoginActivity struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Device    string    `json:"device"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type BannedIP struct {
	ID        int64      `json:"id"`
	IP        string     `json:"ip"`
	Reason    string     `json:"reason"`
	BannedBy  string     `json:"banned_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Agent struct {
	ID        int64     `json:"id"`
	Codename  string    `json:"codename"`
	Rank      string    `json:"rank"`
	Status    string    `json:"status"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Operation struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Objective   string     `json:"objective"`
	Status      string     `json:"status"`
	LeadAgentID *int64     `json:"lead_agent_id,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type IntelItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Source    string    `json:"source"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewsPost struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Album struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverURL    string    `json:"cover_url"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
