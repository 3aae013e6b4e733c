package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type NoticeRepository struct {
	mu      sync.RWMutex
	notices map[primitive.ObjectID]*models.Notice
}

var _ repositories.NoticeRepository = (*NoticeRepository)(nil)

func NewNoticeRepository() *NoticeRepository {
	return &NoticeRepository{notices: map[primitive.ObjectID]*models.Notice{}}
}

func cloneNotice(n *models.Notice) models.Notice {
	c := *n
	c.IsRead = cloneIDs(n.IsRead)
	return c
}

func (r *NoticeRepository) Insert(_ context.Context, notice *models.Notice) error {
	if notice.ID.IsZero() {
		notice.ID = primitive.NewObjectID()
	}
	if notice.IsRead == nil {
		notice.IsRead = []primitive.ObjectID{}
	}
	c := cloneNotice(notice)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices[notice.ID] = &c
	return nil
}

// Get returns a copy of one notice, for assertions.
func (r *NoticeRepository) Get(id primitive.ObjectID) (models.Notice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notices[id]
	if !ok {
		return models.Notice{}, false
	}
	return cloneNotice(n), true
}

// All returns every notice newest first.
func (r *NoticeRepository) All() []models.Notice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Notice, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, cloneNotice(n))
	}
	slices.SortFunc(out, func(a, b models.Notice) int { return newestFirst(a.ID, b.ID) })
	return out
}

func (r *NoticeRepository) ListUnreadFor(_ context.Context, userID primitive.ObjectID) ([]models.Notice, error) {
	out := []models.Notice{}
	for _, n := range r.All() {
		if !n.ReadBy(userID) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *NoticeRepository) MarkAllRead(_ context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, notice := range r.notices {
		if !notice.ReadBy(userID) {
			notice.IsRead = append(notice.IsRead, userID)
			notice.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *NoticeRepository) MarkRead(_ context.Context, noticeID, userID primitive.ObjectID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notice, ok := r.notices[noticeID]
	if !ok {
		return false, nil
	}
	if !notice.ReadBy(userID) {
		notice.IsRead = append(notice.IsRead, userID)
		notice.UpdatedAt = now
	}
	return true, nil
}
