package domain

import (
	"strings"
	"time"
)

const (
	// ReservedAgentID is the one handle that can never be registered,
	// demoted, or deleted. It belongs to the system account seeded at
	// startup.
	ReservedAgentID = "rune"

	// ReservedID is the fixed record id of the seeded system account.
	ReservedID = "rune-1234-5678"

	// GuestSentinel is the login identifier that triggers guest mode.
	// It bypasses the credential vault entirely and never touches the
	// identity store.
	GuestSentinel = "$guest_mode"

	// GuestID is the id of the fabricated, non-persisted guest agent.
	GuestID = "guest"
)

// DisplayNameCooldown is the minimum elapsed wall-clock time between two
// display-name changes on the same agent.
const DisplayNameCooldown = 30 * 24 * time.Hour

// MinPasswordLength applies to new passwords on change; registration accepts
// any non-empty secret (parity with the original client).
const MinPasswordLength = 8

// BioLayout selects how the profile bio section is rendered by clients.
type BioLayout string

const (
	LayoutStandard BioLayout = "standard"
	LayoutCentered BioLayout = "centered"
	LayoutMinimal  BioLayout = "minimal"
)

// AgentStats holds write-mostly activity counters. They are incremented
// asynchronously and are never part of any policy decision.
type AgentStats struct {
	PostsCount           int       `json:"posts_count" bson:"posts_count"`
	LikesReceived        int       `json:"likes_received" bson:"likes_received"`
	LikesGiven           int       `json:"likes_given" bson:"likes_given"`
	LastActive           time.Time `json:"last_active" bson:"last_active"`
	JoinDate             time.Time `json:"join_date" bson:"join_date"`
	AchievementsUnlocked []string  `json:"achievements_unlocked" bson:"achievements_unlocked"`
}

// Customization holds cosmetic profile settings. No field here is validated
// beyond shape; clients own the meaning.
type Customization struct {
	AccentColor  string    `json:"accent_color" bson:"accent_color"`
	BioLayout    BioLayout `json:"bio_layout" bson:"bio_layout"`
	ShowActivity bool      `json:"show_activity" bson:"show_activity"`
	Status       string    `json:"status,omitempty" bson:"status,omitempty"`
	StatusEmoji  string    `json:"status_emoji,omitempty" bson:"status_emoji,omitempty"`
	Location     string    `json:"location,omitempty" bson:"location,omitempty"`
}

// DefaultCustomization returns the customization applied to every new agent.
func DefaultCustomization() Customization {
	return Customization{
		AccentColor:  "#9333ea",
		BioLayout:    LayoutStandard,
		ShowActivity: true,
		StatusEmoji:  "👋",
	}
}

// Agent is an account/identity in the system.
//
// AgentID is the human-chosen handle, unique case-insensitively and immutable
// after creation. Roles holds weak references: a role may be deleted
// independently, in which case the dangling id is skipped at read time.
type Agent struct {
	ID                    string        `json:"id" bson:"_id"`
	AgentID               string        `json:"agent_id" bson:"agent_id"`
	DisplayName           string        `json:"display_name" bson:"display_name"`
	About                 string        `json:"about,omitempty" bson:"about,omitempty"`
	Avatar                string        `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Banner                string        `json:"banner,omitempty" bson:"banner,omitempty"`
	IsCEO                 bool          `json:"is_ceo" bson:"is_ceo"`
	IsGuest               bool          `json:"is_guest,omitempty" bson:"-"`
	Roles                 []string      `json:"roles" bson:"roles"`
	LastDisplayNameChange time.Time     `json:"last_display_name_change" bson:"last_display_name_change"`
	Stats                 AgentStats    `json:"stats" bson:"stats"`
	Customization         Customization `json:"customization" bson:"customization"`
	CreatedAt             time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at" bson:"updated_at"`
}

// IsReserved reports whether this agent is the protected system account.
func (a *Agent) IsReserved() bool {
	return NormalizeAgentID(a.AgentID) == ReservedAgentID
}

// NormalizeAgentID lower-cases a handle for uniqueness checks and vault keys.
func NormalizeAgentID(agentID string) string {
	return strings.ToLower(strings.TrimSpace(agentID))
}

// ReservedAgent builds the system account seeded when the store is empty.
func ReservedAgent(now time.Time) *Agent {
	return &Agent{
		ID:          ReservedID,
		AgentID:     ReservedAgentID,
		DisplayName: "Rune",
		IsCEO:       true,
		Roles:       []string{},
		Stats: AgentStats{
			PostsCount:           1,
			LastActive:           now,
			JoinDate:             now,
			AchievementsUnlocked: []string{},
		},
		Customization: DefaultCustomization(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// GuestAgent fabricates the ephemeral guest identity. It is never written to
// the identity store and carries no credential.
func GuestAgent(now time.Time) *Agent {
	return &Agent{
		ID:          GuestID,
		AgentID:     GuestID,
		DisplayName: "Guest User",
		IsGuest:     true,
		Roles:       []string{},
		Stats: AgentStats{
			LastActive:           now,
			JoinDate:             now,
			AchievementsUnlocked: []string{},
		},
		Customization: DefaultCustomization(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
