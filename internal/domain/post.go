package domain

import "time"

// PostStatus marks what the team decided to do with a discovered post.
type PostStatus string

const (
	PostStatusNotRelevant   PostStatus = "not_relevant"
	PostStatusCreateContent PostStatus = "create_content"
)

// Post is one discovered content item belonging to exactly one source.
// (SourceID, URI) is unique: re-parsing a feed never creates a second row
// for an already-seen URI and never mutates the existing one.
type Post struct {
	ID             int64
	SourceID       int64
	URI            string
	ExternalTitle  string
	InternalTitle  string
	Summary        *string
	RelevancyScore *int // 0-100, set by summarization
	IsHidden       bool
	Status         PostStatus
	FoundAt        time.Time
}

// NewPost is the minimal shape of a freshly ingested post, used for webhook
// payloads and downstream enqueueing.
type NewPost struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// PostSummary carries the AI-assigned fields written back onto a post.
type PostSummary struct {
	Summary        string
	RelevancyScore int
	Title          string
}
