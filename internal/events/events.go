package events

import (
	"encoding/json"
	"fmt"
)

// Event types published when a list item changes.
const (
	ListItemCreated = "list_item_created"
	ListItemUpdated = "list_item_updated"
	ListItemDeleted = "list_item_deleted"
)

// OwnerChannel is the Pub/Sub channel carrying events for one user's list items.
func OwnerChannel(ownerID string) string {
	return fmt.Sprintf("channel:list-items:%s", ownerID)
}

// Event represents a message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// ListItemPayload is the payload of every list item event.
type ListItemPayload struct {
	ListItemID string `json:"listItemId"`
	OwnerID    string `json:"ownerId"`
	BookID     string `json:"bookId"`
}

// NewListItemEvent builds an event of the given type for a list item.
func NewListItemEvent(eventType string, payload ListItemPayload) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: data}, nil
}
