/*
Package events provides an in-memory event broker for broadcasting lock
manager state changes to interested subscribers.

It implements a lightweight, non-blocking pub/sub bus: publishers send
events to a buffered channel, a broadcast loop fans each event out to
every subscriber's own buffered channel, and slow subscribers simply
miss events rather than blocking the publisher.

# Event Types

Transaction events:
  - transaction.registered
  - transaction.aborted

Lock events:
  - lock.granted
  - lock.upgraded
  - lock.released

Integrity events:
  - integrity.violation

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("%s: %s\n", event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventLockGranted,
		Message: "row 42 granted shared to txn 7",
	})

Publish is non-blocking: a full subscriber buffer causes that event to
be skipped for that subscriber rather than stalling the worker that
published it, so the broker is safe to call from the hot path.
*/
package events
