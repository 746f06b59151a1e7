package dto

// WebhookAck acknowledges a relayed gateway notification.
type WebhookAck struct {
	Status string `json:"status"`
}
