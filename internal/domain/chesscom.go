package domain

import "time"

// Participant is one side of a Chess.com game record.
type Participant struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

// RawGame mirrors an entry of a Chess.com monthly archive. It is never mutated after decoding.
type RawGame struct {
	URL         string      `json:"url"`
	PGN         string      `json:"pgn"`
	TimeControl string      `json:"time_control"`
	TimeClass   string      `json:"time_class"`
	Rules       string      `json:"rules"`
	Rated       bool        `json:"rated"`
	EndTime     int64       `json:"end_time"`
	White       Participant `json:"white"`
	Black       Participant `json:"black"`
}

func (g RawGame) EndedAt() time.Time {
	return time.Unix(g.EndTime, 0).UTC()
}

// Profile is the soft-failing player summary; Title and Rating stay nil when unknown.
type Profile struct {
	Username string
	Title    *string
	Rating   *int
}

// ResultWin is the Chess.com result code of the winning side.
const ResultWin = "win"
