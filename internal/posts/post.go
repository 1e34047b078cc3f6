package posts

// Post mirrors the external posts API contract. Field names follow the
// upstream JSON, not our own conventions.
type Post struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// Page is one window over a (possibly filtered) snapshot.
type Page struct {
	Posts   []Post `json:"posts"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	HasNext bool   `json:"has_next"`
	HasPrev bool   `json:"has_prev"`
}
