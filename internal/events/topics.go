package events

const (
	TopicConnectionState = "pipe.state"
	TopicConnectionInfo  = "pipe.usb_status"
	TopicControlState    = "pipe.thread"
	TopicBuffer          = "pipe.buffer"
	TopicPacket          = "pipe.packet"
	TopicStatus          = "pipe.status"
)
