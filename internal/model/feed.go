package model

// Article is a news item from any of the aggregated feeds
type Article struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"` // Feed that produced the item (newsapi, newsdata, pib)
	Published   string `json:"published,omitempty"`
}

// RedditPost is a hot post from a subreddit listing
type RedditPost struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
}

// Tweet is a recent-search result
type Tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SocialFeed bundles both social sources for the /social endpoint
type SocialFeed struct {
	Reddit  []RedditPost `json:"reddit"`
	Twitter []Tweet      `json:"twitter"`
}
