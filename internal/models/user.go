package models

// User is the rewards-platform account referenced by the pipeline.
//
// The user record is owned by the platform's user store; the pipeline only
// reads the fields it needs to attribute a reward.
type User struct {
	ID         string `json:"id"`
	Phone      string `json:"phone"`
	ReferrerID string `json:"referrerId,omitempty"`
}
