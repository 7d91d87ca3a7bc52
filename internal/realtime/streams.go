package realtime

// Named realtime streams.
const (
	// StreamNotifications carries notification.created/read/read_all/deleted events for the recipient.
	StreamNotifications = "notifications"
	// StreamMeetings carries resource change events so clients can refetch only what changed.
	StreamMeetings = "meetings"
)

// DefaultStreams are subscribed when a client connects without asking for specific streams.
var DefaultStreams = []string{StreamNotifications, StreamMeetings}
