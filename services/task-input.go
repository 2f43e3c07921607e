package services

import (
	"bytes"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const assignedToMessage = "assignedTo must be an array of user IDs"

// ParseAssignedTo decodes a raw assignedTo value. It must be a JSON array of
// ObjectID hex strings with at least one entry.
func ParseAssignedTo(raw json.RawMessage) ([]primitive.ObjectID, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, badRequest(assignedToMessage)
	}

	var hexIDs []string
	if err := json.Unmarshal(trimmed, &hexIDs); err != nil {
		return nil, badRequest(assignedToMessage)
	}
	if len(hexIDs) == 0 {
		return nil, badRequest("assignedTo must contain at least one user")
	}

	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, hex := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, badRequest("invalid user ID in assignedTo: " + hex)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsAbsent reports whether a raw JSON field was omitted or explicitly null.
func IsAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ParseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. An empty
// value returns nil.
func ParseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, badRequest("invalid dueDate: " + value)
}

func parseObjectID(id, entity string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound(entity + " not found")
	}
	return oid, nil
}
