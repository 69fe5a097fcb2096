package primary

import (
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
)

// MessageHandler handles one IPC message type coming up from a worker.
type MessageHandler interface {
	HandleMessage(workerID int, msg ipc.Message) error
}
