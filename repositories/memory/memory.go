// Package memory holds map-backed repositories for tests and for running the
// API without a database.
package memory

import (
	"bytes"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

// Store bundles the three repositories over one process-local data set.
type Store struct {
	Tasks   *TaskRepository
	Notices *NoticeRepository
	Users   *UserRepository
}

func NewStore() *Store {
	return &Store{
		Tasks:   NewTaskRepository(),
		Notices: NewNoticeRepository(),
		Users:   NewUserRepository(),
	}
}

func newestFirst(a, b primitive.ObjectID) int {
	return -bytes.Compare(a[:], b[:])
}

func containsFold(fields []string, term string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return nil
	}
	return slices.Clone(ids)
}
