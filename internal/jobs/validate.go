package jobs

import "strings"

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobSendWelcomeEmail:
		var p WelcomeEmailPayload
		switch v := payload.(type) {
		case WelcomeEmailPayload:
			p = v
		case *WelcomeEmailPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.UserID) == "" || trim(p.Email) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobCleanupTaskLogs:
		var p CleanupTaskLogsPayload
		switch v := payload.(type) {
		case CleanupTaskLogsPayload:
			p = v
		case *CleanupTaskLogsPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if p.OlderThanDays <= 0 {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
