package dto

type ErrorResponse struct {
	Error string `json:"error"`
}

type WebhookAcceptedResponse struct {
	Received bool   `json:"received"`
	EventID  string `json:"event_id"`
}

type SyncResponse struct {
	Kind      string `json:"kind"`
	PrimaryID string `json:"primary_id"`
	Status    string `json:"status"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
