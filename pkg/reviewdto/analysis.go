package reviewdto

const (
	ScoreCentipawn = "cp"
	ScoreMate      = "mate"
)

// Score is an engine evaluation from White's point of view.
type Score struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

func NeutralScore() Score { return Score{Type: ScoreCentipawn, Value: 0} }

func (s Score) IsMate() bool { return s.Type == ScoreMate }

type Line struct {
	Move  string   `json:"move"`
	Score Score    `json:"score"`
	PV    []string `json:"pv,omitempty"`
}

type PositionAnalysis struct {
	Eval  Score  `json:"eval"`
	Lines []Line `json:"lines"`
}

// NeutralAnalysis is what the evaluator returns when it cannot produce a real result.
func NeutralAnalysis() PositionAnalysis {
	return PositionAnalysis{Eval: NeutralScore(), Lines: []Line{}}
}

type Opening struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
