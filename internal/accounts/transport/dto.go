package transport

// ClientResponse represents a client in API responses.
type ClientResponse struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
	CreatedAt   string `json:"createdAt"`
}

// ClientListResponse wraps a list of clients.
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Total int              `json:"total"`
}

// ActivityResponse represents a work log entry in API responses.
type ActivityResponse struct {
	ID         int64  `json:"id"`
	ClientID   string `json:"clientId"`
	DealID     *int   `json:"dealId,omitempty"`
	ActionType string `json:"actionType"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	RefID      *int64 `json:"refId,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// ActivityListResponse wraps a client's work log.
type ActivityListResponse struct {
	ClientID string             `json:"clientId"`
	Items    []ActivityResponse `json:"items"`
	Total    int                `json:"total"`
}
