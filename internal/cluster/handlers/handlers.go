package handlers

import (
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/services/dispatch"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
)

// New maps every worker -> master message type to its handler.
func New(dispatcher dispatch.IDispatcher, logger primary.Logger) map[byte]primary.MessageHandler {
	return map[byte]primary.MessageHandler{
		ipc.MsgIncrementRequests: &IncrementHandler{Dispatcher: dispatcher, Logger: logger},
		ipc.MsgDecrementRequests: &DecrementHandler{Dispatcher: dispatcher, Logger: logger},
		ipc.MsgTaskResult:        &TaskResultHandler{Dispatcher: dispatcher, Logger: logger},
		ipc.MsgError:             &TaskErrorHandler{Dispatcher: dispatcher, Logger: logger},
	}
}
