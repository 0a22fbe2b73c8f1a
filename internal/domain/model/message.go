package model

// Stream message types pushed to websocket subscribers.
const (
	MessageTick      = "tick"
	MessageMetaBatch = "meta_batch"
	MessageSnapshot  = "snapshot"
	MessagePing      = "ping"
)

// Message is the envelope of every stream message.
type Message struct {
	Type    string              `json:"type"`
	Record  *NormalizedRecord   `json:"record,omitempty"`
	Records *[]NormalizedRecord `json:"records,omitempty"`
	Count   *int                `json:"count,omitempty"`
}

func TickMessage(rec NormalizedRecord) Message {
	return Message{Type: MessageTick, Record: &rec}
}

func MetaBatchMessage(count int) Message {
	return Message{Type: MessageMetaBatch, Count: &count}
}

// SnapshotMessage always carries a records array, empty when nothing is cached.
func SnapshotMessage(records []NormalizedRecord) Message {
	if records == nil {
		records = []NormalizedRecord{}
	}
	return Message{Type: MessageSnapshot, Records: &records}
}

func PingMessage() Message {
	return Message{Type: MessagePing}
}
