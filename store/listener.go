package store

import (
	"strings"
	"time"

	"github.com/lib/pq"

	"eduplatform/logger"
)

// DocChange identifies a created or modified document.
type DocChange struct {
	Collection string // "courses" or "batches"
	ID         string
}

// ChangeFeed delivers document change notifications from the store's
// doc_changes channel (see db/schema.sql).
type ChangeFeed struct {
	listener *pq.Listener
	changes  chan DocChange
	done     chan struct{}
}

// NewChangeFeed opens a LISTEN connection and starts translating
// notifications. Callers receive from Changes and Close when done.
func NewChangeFeed(connString string) (*ChangeFeed, error) {
	listener := pq.NewListener(connString, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("Change feed listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen("doc_changes"); err != nil {
		listener.Close()
		return nil, err
	}

	f := &ChangeFeed{
		listener: listener,
		changes:  make(chan DocChange, 16),
		done:     make(chan struct{}),
	}
	go f.run()
	return f, nil
}

// Changes returns the stream of document changes.
func (f *ChangeFeed) Changes() <-chan DocChange {
	return f.changes
}

func (f *ChangeFeed) run() {
	defer close(f.changes)
	for {
		select {
		case <-f.done:
			return
		case n := <-f.listener.Notify:
			if n == nil {
				// Connection re-established; notifications may have
				// been missed. The periodic sweep covers the gap.
				continue
			}
			collection, id, ok := strings.Cut(n.Extra, ":")
			if !ok {
				logger.Warn("Malformed change notification: %q", n.Extra)
				continue
			}
			select {
			case f.changes <- DocChange{Collection: collection, ID: id}:
			case <-f.done:
				return
			}
		}
	}
}

// Close stops the feed and releases the LISTEN connection.
func (f *ChangeFeed) Close() error {
	close(f.done)
	return f.listener.Close()
}
