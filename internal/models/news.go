package models

// NewsArticle is one market news item.
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
	Link        string `json:"link"`
	ImageURL    string `json:"imageUrl,omitempty"`
}
