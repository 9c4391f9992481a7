package reviewdto

const (
	TypeStartAnalysis = "start_analysis"
	TypeStatus        = "status"
	TypeAnalysis      = "analysis"
	TypeComplete      = "complete"
	TypeError         = "error"
)

// StreamRequest is a client→server message on an analysis channel.
type StreamRequest struct {
	Type string `json:"type"`
	PGN  string `json:"pgn,omitempty"`
}

// StreamMessage is any server→client message on an analysis channel.
type StreamMessage interface {
	MessageType() string
}

type StatusMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type AnalysisMessage struct {
	Type  string `json:"type"`
	Ply   int    `json:"ply"`
	Eval  Score  `json:"eval"`
	Lines []Line `json:"lines"`
}

type CompleteMessage struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Count   int      `json:"count"`
	Opening *Opening `json:"opening,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (StatusMessage) MessageType() string   { return TypeStatus }
func (AnalysisMessage) MessageType() string { return TypeAnalysis }
func (CompleteMessage) MessageType() string { return TypeComplete }
func (ErrorMessage) MessageType() string    { return TypeError }

func NewStatus(msg string) StatusMessage { return StatusMessage{Type: TypeStatus, Message: msg} }

func NewError(msg string) ErrorMessage { return ErrorMessage{Type: TypeError, Message: msg} }

func NewAnalysis(ply int, a PositionAnalysis) AnalysisMessage {
	lines := a.Lines
	if lines == nil {
		lines = []Line{}
	}
	return AnalysisMessage{Type: TypeAnalysis, Ply: ply, Eval: a.Eval, Lines: lines}
}

func NewComplete(msg string, count int, opening *Opening) CompleteMessage {
	return CompleteMessage{Type: TypeComplete, Message: msg, Count: count, Opening: opening}
}
