package jobs

type JobType string

const (
	JobSendWelcomeEmail JobType = "send_welcome_email"
	JobCleanupTaskLogs  JobType = "cleanup_task_logs"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobSendWelcomeEmail, JobCleanupTaskLogs:
		return true
	default:
		return false
	}
}
