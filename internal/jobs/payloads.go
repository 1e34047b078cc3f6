package jobs

// WelcomeEmailPayload carries just enough to greet a freshly registered
// user. Keep payloads minimal and ID-based.
type WelcomeEmailPayload struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// CleanupTaskLogsPayload prunes old finished job rows (the task log).
type CleanupTaskLogsPayload struct {
	OlderThanDays int `json:"olderThanDays"`
}
