package model

// ChannelState is the connection state of the realtime push channel.
type ChannelState int

const (
	ChannelDisconnected ChannelState = iota
	ChannelConnecting
	ChannelConnected
)

func (s ChannelState) String() string {
	switch s {
	case ChannelConnecting:
		return "connecting"
	case ChannelConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventNotificationNew is the only push event acted on. It signals that
// something became unread and carries no usable payload.
const EventNotificationNew = "notification:new"
