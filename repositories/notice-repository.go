package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoNoticeRepository struct {
	notices *mongo.Collection
}

var _ NoticeRepository = (*MongoNoticeRepository)(nil)

func NewMongoNoticeRepository(db *mongo.Database) *MongoNoticeRepository {
	return &MongoNoticeRepository{notices: db.Collection(NoticesCollection)}
}

func (r *MongoNoticeRepository) Insert(ctx context.Context, notice *models.Notice) error {
	if notice.ID.IsZero() {
		notice.ID = primitive.NewObjectID()
	}
	if notice.IsRead == nil {
		notice.IsRead = []primitive.ObjectID{}
	}
	if _, err := r.notices.InsertOne(ctx, notice); err != nil {
		return fmt.Errorf("failed to create notice: %w", err)
	}
	return nil
}

func (r *MongoNoticeRepository) ListUnreadFor(ctx context.Context, userID primitive.ObjectID) ([]models.Notice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := r.notices.Find(ctx, unreadFilter(userID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve notices: %w", err)
	}
	return decodeAll[models.Notice](ctx, cursor)
}

func (r *MongoNoticeRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	result, err := r.notices.UpdateMany(ctx, unreadFilter(userID), markReadDoc(userID, now))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notices read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoNoticeRepository) MarkRead(ctx context.Context, noticeID, userID primitive.ObjectID, now time.Time) (bool, error) {
	filter := unreadFilter(userID)
	filter["_id"] = noticeID
	result, err := r.notices.UpdateOne(ctx, filter, markReadDoc(userID, now))
	if err != nil {
		return false, fmt.Errorf("failed to mark notice read: %w", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	// Already read, or missing entirely.
	count, err := r.notices.CountDocuments(ctx, bson.M{"_id": noticeID})
	if err != nil {
		return false, fmt.Errorf("failed to look up notice: %w", err)
	}
	return count > 0, nil
}
