// internal/model/campaign.go
package model

// CampaignRecord is the persisted state of one fund-raising campaign. It
// lives in a fixed 310-byte account at the address derived from Creator.
type CampaignRecord struct {
	Initialized bool    `json:"initialized"`
	Name        string  `json:"name"`
	Creator     Address `json:"creator"`
	GoalAmount  uint64  `json:"goal_amount"`
	Deadline    int64   `json:"deadline"`
	Bump        uint8   `json:"bump"`
}

// CreateCampaignPayload is the decoded body of a create-campaign instruction.
type CreateCampaignPayload struct {
	Name       string `json:"name"`
	GoalAmount uint64 `json:"goal_amount"`
	Deadline   int64  `json:"deadline"`
}
