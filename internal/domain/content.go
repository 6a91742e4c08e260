package domain

import "time"

// GenerationStatus is the state machine shared by content pieces and
// derivatives: idle -> queued -> processing -> completed | failed.
type GenerationStatus string

const (
	GenerationIdle       GenerationStatus = "idle"
	GenerationQueued     GenerationStatus = "queued"
	GenerationProcessing GenerationStatus = "processing"
	GenerationCompleted  GenerationStatus = "completed"
	GenerationFailed     GenerationStatus = "failed"
)

// CanGenerate reports whether a new generation may be started. Only one
// non-terminal generation is allowed in flight.
func (s GenerationStatus) CanGenerate() bool {
	switch s {
	case GenerationIdle, GenerationCompleted, GenerationFailed:
		return true
	default:
		return false
	}
}

// ContentPiece bundles background sources and a prompt into a generation
// target. Derivatives render it per channel.
type ContentPiece struct {
	ID             int64
	TeamID         int64
	Title          string
	Briefing       string
	Language       string
	PromptTemplate string
	Status         GenerationStatus
	ErrorMessage   string
	GeneratedTitle string
	GeneratedText  string
	CreatedAt      time.Time
}

// ContentDerivative is a per-channel rendering of a content piece.
type ContentDerivative struct {
	ID             int64
	ContentPieceID int64
	Channel        string
	PromptTemplate string
	Status         GenerationStatus
	ErrorMessage   string
	GeneratedText  string
}

// BackgroundSource is contextual material feeding a generation prompt.
// It is either a reference to an existing post or freeform manual text.
type BackgroundSource interface {
	backgroundSource()
}

// PostRef points at a discovered post whose title/URL/summary feed the
// generation context.
type PostRef struct {
	PostID int64
}

func (PostRef) backgroundSource() {}

// ManualText is user-entered background material.
type ManualText struct {
	Title string
	Text  string
	URL   string
}

func (ManualText) backgroundSource() {}
