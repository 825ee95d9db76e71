package checkin

import (
	"encoding/json"
	"fmt"

	"github.com/gatherkit/gatekit/internal/log"
	"github.com/gatherkit/gatekit/internal/storage"
)

// queueKey derives the storage key holding an event's pending tokens.
func queueKey(eventID string) string {
	return fmt.Sprintf("checkin_queue_%s", eventID)
}

// loadQueue reads the persisted pending tokens for an event. The queue is
// best-effort state: a read error or malformed record degrades to an empty
// queue rather than failing the scan flow.
func loadQueue(store storage.Store, eventID string) []string {
	data, err := store.Get(queueKey(eventID))
	if err != nil {
		log.Debugf("checkin: failed to read queue for %s: %v", eventID, err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Debugf("checkin: malformed queue for %s, treating as empty", eventID)
		return nil
	}

	tokens := make([]string, 0, len(raw))
	for _, entry := range raw {
		if token, ok := entry.(string); ok {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// saveQueue overwrites the persisted queue wholesale. Write failures are
// dropped silently; losing the buffer beats crashing the scanner.
func saveQueue(store storage.Store, eventID string, tokens []string) {
	if tokens == nil {
		tokens = []string{}
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		log.Debugf("checkin: failed to encode queue for %s: %v", eventID, err)
		return
	}
	if err := store.Set(queueKey(eventID), data); err != nil {
		log.Debugf("checkin: failed to persist queue for %s: %v", eventID, err)
	}
}
