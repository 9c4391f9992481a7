package reviewdto

// PresentationGame is the flattened, viewer-relative projection of a Chess.com game.
type PresentationGame struct {
	End          string `json:"end"`
	EndTime      int64  `json:"end_time"`
	White        string `json:"white"`
	WhiteRating  int    `json:"white_rating"`
	WhiteResult  string `json:"white_result"`
	Black        string `json:"black"`
	BlackRating  int    `json:"black_rating"`
	BlackResult  string `json:"black_result"`
	TimeClass    string `json:"time_class"`
	PGN          string `json:"pgn"`
	PGNID        string `json:"pgn_id"`
	URL          string `json:"url"`
	Outcome      string `json:"outcome"`
	OutcomeClass string `json:"outcome_class"`
}

type Profile struct {
	Username string  `json:"username"`
	Title    *string `json:"title"`
	Rating   *int    `json:"rating"`
}
