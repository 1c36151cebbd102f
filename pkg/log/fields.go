package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID      = "user_id"
	FieldDisplayName = "display_name"

	// Chat domain
	FieldRoomID     = "room_id"
	FieldMessageID  = "message_id"
	FieldPollID     = "poll_id"
	FieldScheduleID = "schedule_id"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
