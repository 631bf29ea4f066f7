package domain

// Harvesting approval modes.
const (
	ApprovalAutoActivate   = "AUTO_ACTIVATE"
	ApprovalManualApproval = "MANUAL_APPROVAL"
)

// HarvestPolicyDiscoverableTerms is the only harvesting policy goalsync requests.
const HarvestPolicyDiscoverableTerms = "DISCOVERABLE_TERMS"

// Targeting types sent to the platform.
const (
	TargetingKeyword = "KEYWORD"
	TargetingProduct = "PRODUCT"
)

// GoalTypeSingleCampaign is the platform's custom single-campaign goal type.
const GoalTypeSingleCampaign = "SINGLE_CAMPAIGN"

// GoalPayload is the request body for goal creation. It is built once per
// task attempt and never persisted.
type GoalPayload struct {
	Name                string              `json:"name"`
	GoalType            string              `json:"goal_type"`
	Status              string              `json:"status"`
	TargetingType       string              `json:"targeting_type"`
	DailyBudget         float64             `json:"daily_budget"`
	TargetACoS          float64             `json:"target_acos"`
	MinBid              float64             `json:"min_bid"`
	MaxBid              float64             `json:"max_bid"`
	Products            []GoalProduct       `json:"products"`
	SearchSpace         []SearchSpaceEntry  `json:"search_space"`
	NegativeSearchSpace []SearchSpaceEntry  `json:"negative_search_space"`
	Harvesting          *HarvestingSettings `json:"harvesting,omitempty"`
}

// GoalProduct is the advertised product attached to a goal.
type GoalProduct struct {
	ProductID int64  `json:"product_id"`
	ASIN      string `json:"asin"`
	SKU       string `json:"sku"`
}

// SearchSpaceEntry is one keyword or product target with its match type.
type SearchSpaceEntry struct {
	Text      string    `json:"text"`
	MatchType MatchType `json:"match_type"`
}

// HarvestingSettings configures keyword discovery for keyword goals.
type HarvestingSettings struct {
	Enabled      bool   `json:"enabled"`
	Policy       string `json:"policy"`
	ApprovalMode string `json:"approval_mode"`
}

// ProductMatch is one row of a product search result.
type ProductMatch struct {
	ProductID int64  `json:"product_id"`
	ASIN      string `json:"asin"`
	Title     string `json:"title"`
}
