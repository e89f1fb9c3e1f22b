package transport

// CreateDealRequest contains data for creating a new deal.
type CreateDealRequest struct {
	ClientID *string `json:"clientId,omitempty" validate:"omitempty,min=1,max=20"`
	Name     string  `json:"name" validate:"required,min=1,max=200"`
	Stage    *string `json:"stage,omitempty" validate:"omitempty,min=2,max=4"`
	Owner    *string `json:"owner,omitempty" validate:"omitempty,max=100"`
	Priority *string `json:"priority,omitempty" validate:"omitempty,oneof=High Medium Low"`
}

// TransitionRequest asks to move a deal to a target stage.
type TransitionRequest struct {
	TargetStage string `json:"targetStage" validate:"required,min=2,max=4"`
	Force       bool   `json:"force"`
}

// SaveAnalysisRequest carries the six MEDDIC analysis fields.
type SaveAnalysisRequest struct {
	Metrics          string `json:"metrics" validate:"max=4000"`
	EconomicBuyer    string `json:"economicBuyer" validate:"max=4000"`
	DecisionCriteria string `json:"decisionCriteria" validate:"max=4000"`
	DecisionProcess  string `json:"decisionProcess" validate:"max=4000"`
	IdentifyPain     string `json:"identifyPain" validate:"max=4000"`
	Champion         string `json:"champion" validate:"max=4000"`
}

// DealResponse represents a deal in API responses.
type DealResponse struct {
	ID             int     `json:"id"`
	ClientID       *string `json:"clientId,omitempty"`
	Name           string  `json:"name"`
	Stage          string  `json:"stage"`
	StageName      string  `json:"stageName"`
	StageChangedAt string  `json:"stageChangedAt"`
	Owner          *string `json:"owner,omitempty"`
	Priority       string  `json:"priority"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// DealListResponse wraps a list of deals.
type DealListResponse struct {
	Items []DealResponse `json:"items"`
	Total int            `json:"total"`
}

// StageOption is one legal next stage for a deal.
type StageOption struct {
	Stage string `json:"stage"`
	Name  string `json:"name"`
}

// NextStagesResponse lists the legal next stages from the deal's current
// stage.
type NextStagesResponse struct {
	CurrentStage string        `json:"currentStage"`
	NextStages   []StageOption `json:"nextStages"`
}

// AnalysisResponse represents a deal's MEDDIC record in API responses.
type AnalysisResponse struct {
	DealID           int    `json:"dealId"`
	Metrics          string `json:"metrics"`
	EconomicBuyer    string `json:"economicBuyer"`
	DecisionCriteria string `json:"decisionCriteria"`
	DecisionProcess  string `json:"decisionProcess"`
	IdentifyPain     string `json:"identifyPain"`
	Champion         string `json:"champion"`
	UpdatedAt        string `json:"updatedAt"`
}
