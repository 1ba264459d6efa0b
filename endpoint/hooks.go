package endpoint

import (
	"context"
	"time"

	"github.com/kbukum/apifire/logger"
	"github.com/kbukum/apifire/session"
)

// Kind identifies the call kind.
type Kind string

const (
	KindData     Kind = "data"
	KindDownload Kind = "download"
	KindUpload   Kind = "upload"
)

// CallInfo describes a call that passed preflight.
type CallInfo struct {
	ID      string
	Kind    Kind
	Method  string
	URL     string
	Timeout time.Duration
	Started time.Time
}

// CallHooks observe calls as they are executed. CallStarted may return a
// derived context which is used for the request and passed to CallEnded.
type CallHooks interface {
	CallStarted(ctx context.Context, info CallInfo) context.Context
	CallEnded(ctx context.Context, info CallInfo, resp *session.Response)
}

type multiHooks []CallHooks

// MultiHooks combines hooks. CallStarted runs in order and CallEnded in
// reverse order. Nil entries are skipped.
func MultiHooks(hooks ...CallHooks) CallHooks {
	var m multiHooks
	for _, h := range hooks {
		if h != nil {
			m = append(m, h)
		}
	}
	return m
}

func (m multiHooks) CallStarted(ctx context.Context, info CallInfo) context.Context {
	for _, h := range m {
		ctx = h.CallStarted(ctx, info)
	}
	return ctx
}

func (m multiHooks) CallEnded(ctx context.Context, info CallInfo, resp *session.Response) {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].CallEnded(ctx, info, resp)
	}
}

type logHooks struct {
	log *logger.Logger
}

// LogHooks returns hooks that log every call start and completion.
func LogHooks(l *logger.Logger) CallHooks {
	return &logHooks{log: l.WithComponent("endpoint")}
}

func (h *logHooks) CallStarted(ctx context.Context, info CallInfo) context.Context {
	h.log.Debug("Call started", logger.Fields(
		logger.FieldCallID, info.ID,
		logger.FieldKind, string(info.Kind),
		logger.FieldMethod, info.Method,
		logger.FieldURL, info.URL,
	))
	return ctx
}

func (h *logHooks) CallEnded(ctx context.Context, info CallInfo, resp *session.Response) {
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldCallID, info.ID,
		logger.FieldKind, string(info.Kind),
		logger.FieldStatus, resp.StatusCode,
	), resp.Duration)
	if resp.Err != nil {
		h.log.Warn("Call failed", logger.MergeWithError(fields, resp.Err))
		return
	}
	h.log.Info("Call completed", fields)
}
