package segmentwire

import "github.com/segmentio/ksuid"

// MessageID correlates one message across logs and metrics: assigned once when a
// Message is created or read, it has no meaning on the wire itself and is never
// serialized into the message's own segments.
type MessageID = ksuid.KSUID

// NewMessageID returns a fresh, time-ordered message identifier.
func NewMessageID() MessageID { return ksuid.New() }
