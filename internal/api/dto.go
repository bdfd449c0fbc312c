package api

type NewsResponse struct {
	ID          int64   `json:"id"`
	Category    string  `json:"category"`
	Keyword     string  `json:"keyword,omitempty"`
	Title       string  `json:"title"`
	Summary     string  `json:"summary"`
	Link        *string `json:"link"`
	ImageURL    *string `json:"image_url"`
	Score       float64 `json:"score"`
	Rank        *int    `json:"rank"`
	Likes       int     `json:"likes"`
	Dislikes    int     `json:"dislikes"`
	CreatedAt   string  `json:"created_at"`
	PublishedAt string  `json:"published_at,omitempty"`
}

type NewsListResponse struct {
	Category string         `json:"category"`
	Items    []NewsResponse `json:"items"`
}

type RankingResponse struct {
	Rank      int     `json:"rank"`
	Title     string  `json:"title"`
	MetaInfo  string  `json:"meta_info"`
	Score     float64 `json:"score"`
	UpdatedAt string  `json:"updated_at"`
}

type RankingsResponse struct {
	Category string            `json:"category"`
	Rankings []RankingResponse `json:"rankings"`
}

type KeywordResponse struct {
	Keyword   string `json:"keyword"`
	Count     int    `json:"count"`
	Rank      int    `json:"rank"`
	UpdatedAt string `json:"updated_at"`
}

type ArchiveResponse struct {
	Category    string  `json:"category"`
	Keyword     string  `json:"keyword,omitempty"`
	Title       string  `json:"title"`
	Summary     string  `json:"summary"`
	Link        *string `json:"link"`
	ImageURL    *string `json:"image_url"`
	Score       float64 `json:"score"`
	Rank        *int    `json:"rank"`
	ArchivedAt  string  `json:"archived_at"`
	PublishedAt string  `json:"published_at,omitempty"`
}

type ArchiveListResponse struct {
	Records []ArchiveResponse `json:"records"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}
