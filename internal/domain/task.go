package domain

// Task types routed through the queue.
const (
	TaskCheckSource        = "check_source"
	TaskSummarizePost      = "summarize_post"
	TaskGeneratePiece      = "generate_piece"
	TaskGenerateDerivative = "generate_derivative"
	TaskDeliverWebhook     = "deliver_webhook"
)

// CheckSourceTask triggers one monitoring run for a source.
type CheckSourceTask struct {
	SourceID int64 `json:"source_id"`
}

// SummarizePostTask triggers summarization of one discovered post.
type SummarizePostTask struct {
	PostID int64 `json:"post_id"`
}

// GeneratePieceTask triggers text generation for a content piece.
type GeneratePieceTask struct {
	ContentPieceID int64  `json:"content_piece_id"`
	UserID         *int64 `json:"user_id,omitempty"`
}

// GenerateDerivativeTask triggers text generation for one channel derivative.
type GenerateDerivativeTask struct {
	DerivativeID int64  `json:"derivative_id"`
	UserID       *int64 `json:"user_id,omitempty"`
}

// DeliverWebhookTask carries a notification about newly found posts.
type DeliverWebhookTask struct {
	WebhookID  int64     `json:"webhook_id"`
	SourceID   int64     `json:"source_id"`
	SourceName string    `json:"source_name"`
	NewPosts   []NewPost `json:"new_posts"`
}
