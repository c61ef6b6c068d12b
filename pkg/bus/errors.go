package bus

import "fmt"

// PublishError reports a message the chat platform rejected or could not
// be reached for. Publish failures are reported to the trigger, never
// retried by the channel itself.
type PublishError struct {
	Channel string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing to %s: %v", e.Channel, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
