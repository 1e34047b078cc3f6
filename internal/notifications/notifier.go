package notifications

import "context"

type WelcomeEmailInput struct {
	Email    string
	Username string
}

type Notifier interface {
	SendWelcomeEmail(ctx context.Context, input WelcomeEmailInput) error
}
