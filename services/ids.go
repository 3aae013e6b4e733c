package services

import (
	"github.com/DinieMobo/TaskHero/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID resolves a hex id. A malformed id cannot name any document, so it
// is reported as not found.
func ParseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, models.NotFoundError("%s not found", what)
	}
	return id, nil
}

// ParseIDs converts hex ids, rejecting malformed ones.
func ParseIDs(hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	seen := map[primitive.ObjectID]bool{}
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, models.ValidationError("Invalid user id %q", h)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
