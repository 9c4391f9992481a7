package reviewdto

type FetchGamesRequest struct {
	Username string `json:"username" validate:"required,max=30"`
}

type FetchGamesResponse struct {
	Games []PresentationGame `json:"games"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ProbeResponse struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	SampleGame *PresentationGame `json:"sample_game,omitempty"`
}

type EngineParameters struct {
	Threads int `json:"threads"`
	MultiPV int `json:"multipv"`
	HashMB  int `json:"hash_mb"`
}

type EngineInfo struct {
	Status     string            `json:"status"`
	Name       string            `json:"name,omitempty"`
	Depth      int               `json:"depth,omitempty"`
	Parameters *EngineParameters `json:"parameters,omitempty"`
	Message    string            `json:"message,omitempty"`
}
