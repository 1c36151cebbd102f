package audit

import (
	"context"

	"github.com/pageturn/bookclub-chat/pkg/log"
)

// Audit actions for moderation and lifecycle changes.
const (
	ActionCreateRoom   = "room.create"
	ActionLeaveRoom    = "room.leave"
	ActionDestroyRoom  = "room.destroy"
	ActionKickMember   = "member.kick"
	ActionMuteMember   = "member.mute"
	ActionUnmuteMember = "member.unmute"
	ActionDeleteMsg    = "message.delete"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldTarget = "target"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithTarget emits an audit log naming the acted-on entity.
func LogWithTarget(ctx context.Context, action string, userID string, target string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTarget, target).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
