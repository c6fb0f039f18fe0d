package store

// ChannelNotifier delivers "receipts updated" signals over a buffered
// channel for UI layers to select on. The signal carries no payload and is
// dropped rather than blocking when no one is listening.
type ChannelNotifier struct {
	C chan struct{}
}

// NewChannelNotifier creates a notifier with a single-slot buffer, which
// coalesces bursts of updates into one pending signal.
func NewChannelNotifier() *ChannelNotifier {
	return &ChannelNotifier{C: make(chan struct{}, 1)}
}

// ReceiptsUpdated implements Notifier.
func (n *ChannelNotifier) ReceiptsUpdated() {
	select {
	case n.C <- struct{}{}:
	default:
	}
}
