package model

// Discrepancy kinds and sources.
const (
	DiscrepancyMissingInFreeSources = "missing_in_free_sources"
	SourceReferenceOnly             = "reference_only"
)

// Discrepancy flags a reference player the corroborating rosters do not confirm.
type Discrepancy struct {
	Type     string `json:"type"`
	Player   string `json:"player"`
	Position string `json:"position"`
	Source   string `json:"source"`
}

// ReconciledPlayer is a reference player annotated with corroboration results.
type ReconciledPlayer struct {
	PlayerRecord
	Corroborated   bool `json:"corroborated"`
	RosterMatches  int  `json:"roster_matches"`
	InjuryMentions int  `json:"injury_mentions"`
}

// SportReconciliation holds the per-sport reconciliation metrics. All
// percentages are in [0,100].
type SportReconciliation struct {
	Agreement        float64            `json:"agreement"`
	Freshness        float64            `json:"freshness"`
	Confidence       float64            `json:"confidence"`
	CategoryCount    int                `json:"category_count"`
	ReferencePlayers int                `json:"reference_players"`
	Matched          int                `json:"matched"`
	Discrepancies    []Discrepancy      `json:"discrepancies"`
	Players          []ReconciledPlayer `json:"players,omitempty"`
}

// Reconciliation is keyed by sport.
type Reconciliation map[Sport]SportReconciliation

// Trend directions used by rankings.
const (
	TrendUp   = "up"
	TrendDown = "down"
)

// Trending directions used by trending players.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
)

// RiskLevel grades injury risk.
type RiskLevel string

// Injury risk levels.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Ranking is one entry of a sport's player rankings.
type Ranking struct {
	Rank            int     `json:"rank"`
	Player          string  `json:"player"`
	Team            string  `json:"team,omitempty"`
	Position        string  `json:"position"`
	ProjectedPoints float64 `json:"projected_points"`
	Confidence      float64 `json:"confidence"`
	Trend           string  `json:"trend"`
	Reasoning       string  `json:"reasoning"`
}

// InjuryRisk flags a player whose availability is in doubt.
type InjuryRisk struct {
	Player         string    `json:"player"`
	Team           string    `json:"team,omitempty"`
	Position       string    `json:"position"`
	RiskLevel      RiskLevel `json:"risk_level"`
	RiskFactors    []string  `json:"risk_factors"`
	Recommendation string    `json:"recommendation"`
}

// ValueOpportunity is an under-valued player candidate.
type ValueOpportunity struct {
	Player          string  `json:"player"`
	Team            string  `json:"team,omitempty"`
	Position        string  `json:"position"`
	ProjectedPoints float64 `json:"projected_points"`
	ProjectedValue  float64 `json:"projected_value"` // points above the position average
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

// TrendingPlayer is a player moving away from their position baseline.
type TrendingPlayer struct {
	Player     string   `json:"player"`
	Position   string   `json:"position"`
	Trend      string   `json:"trend"`
	Percentage float64  `json:"percentage"`
	Catalysts  []string `json:"catalysts"`
}

// SportPredictions is the prediction output for one sport. Confidence is the
// reconciliation confidence the predictions were derived from.
type SportPredictions struct {
	Confidence         float64            `json:"confidence"`
	PlayerRankings     []Ranking          `json:"player_rankings"`
	InjuryRisk         []InjuryRisk       `json:"injury_risk"`
	ValueOpportunities []ValueOpportunity `json:"value_opportunities"`
	TrendingPlayers    []TrendingPlayer   `json:"trending_players"`
}

// Predictions is keyed by sport.
type Predictions map[Sport]SportPredictions
