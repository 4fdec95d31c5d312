// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package viewstream

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TopicViewRecorded is the pipeline topic for view events.
const TopicViewRecorded = "wishlist.views.recorded"

// ViewRecorded is the wire event emitted when a viewer inspects an item.
type ViewRecorded struct {
	// EventID uniquely identifies the event.
	EventID string `json:"event_id"`

	// ViewerID identifies the viewing user.
	ViewerID string `json:"viewer_id"`

	// ItemID identifies the viewed item.
	ItemID string `json:"item_id"`

	// ViewedAt is when the view occurred.
	ViewedAt time.Time `json:"viewed_at"`
}

// NewViewRecorded creates a view event stamped with a fresh event ID.
func NewViewRecorded(viewerID, itemID string, viewedAt time.Time) ViewRecorded {
	return ViewRecorded{
		EventID:  uuid.NewString(),
		ViewerID: viewerID,
		ItemID:   itemID,
		ViewedAt: viewedAt,
	}
}

// Validate checks the event for required fields.
func (e *ViewRecorded) Validate() error {
	if e.ViewerID == "" {
		return fmt.Errorf("viewer_id is required")
	}
	if e.ItemID == "" {
		return fmt.Errorf("item_id is required")
	}
	return nil
}

// Message serializes the event into a Watermill message. The event ID
// doubles as the message UUID.
func (e *ViewRecorded) Message() (*message.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal view event: %w", err)
	}

	id := e.EventID
	if id == "" {
		id = uuid.NewString()
	}
	msg := message.NewMessage(id, data)
	msg.Metadata.Set("viewer_id", e.ViewerID)
	msg.Metadata.Set("item_id", e.ItemID)
	return msg, nil
}

// UnmarshalViewRecorded decodes an event from a message payload.
func UnmarshalViewRecorded(payload []byte) (*ViewRecorded, error) {
	var ev ViewRecorded
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal view event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
