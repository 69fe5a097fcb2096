package ipc

// Protocol constants
const (
	MagicNumber uint16 = 0xCAFE

	// HeaderSize is magic(2) + type(1) + reserved(1) + payload length(4).
	HeaderSize = 8

	// MaxPayloadSize bounds a single frame.
	MaxPayloadSize = 64 << 20

	// Message types, worker -> master
	MsgIncrementRequests byte = 0x01
	MsgDecrementRequests byte = 0x02
	MsgError             byte = 0x03
	MsgTaskResult        byte = 0x04

	// Message types, master -> worker
	MsgTask byte = 0x10
)

// TypeName returns the name of a message type for logs.
func TypeName(t byte) string {
	switch t {
	case MsgIncrementRequests:
		return "incrementRequests"
	case MsgDecrementRequests:
		return "decrementRequests"
	case MsgError:
		return "ERROR"
	case MsgTaskResult:
		return "taskResult"
	case MsgTask:
		return "task"
	default:
		return "unknown"
	}
}
