// internal/model/event.go
package model

import "time"

// CampaignCreatedEvent is published once a create-campaign invocation has
// committed.
type CampaignCreatedEvent struct {
	Address    Address   `json:"address"`
	Creator    Address   `json:"creator"`
	Name       string    `json:"name"`
	GoalAmount uint64    `json:"goal_amount"`
	Deadline   int64     `json:"deadline"`
	Bump       uint8     `json:"bump"`
	CreatedAt  time.Time `json:"created_at"`
}
