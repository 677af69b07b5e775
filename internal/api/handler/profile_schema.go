package handler

import "github.com/securenexus/identity-api/internal/core/domain"

type customizationRequest struct {
	AccentColor  string `json:"accent_color"`
	BioLayout    string `json:"bio_layout"    validate:"omitempty,oneof=standard centered minimal"`
	ShowActivity bool   `json:"show_activity"`
	Status       string `json:"status"`
	StatusEmoji  string `json:"status_emoji"`
	Location     string `json:"location"`
}

// updateProfileRequest is a partial update; absent fields stay untouched.
type updateProfileRequest struct {
	DisplayName   *string               `json:"display_name"`
	About         *string               `json:"about"`
	Avatar        *string               `json:"avatar"`
	Banner        *string               `json:"banner"`
	Customization *customizationRequest `json:"customization"`
}

type changePasswordRequest struct {
	// CurrentPassword may legitimately be empty: the seeded system account
	// starts with no credential at all.
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type createRoleRequest struct {
	Name  string `json:"name"  validate:"required"`
	Color string `json:"color" validate:"required"`
}

type rolesResponse struct {
	Roles []*domain.Role `json:"roles"`
}
