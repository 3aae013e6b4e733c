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

type MongoTaskRepository struct {
	tasks *mongo.Collection
}

var _ TaskRepository = (*MongoTaskRepository)(nil)

func NewMongoTaskRepository(db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{tasks: db.Collection(TasksCollection)}
}

func (r *MongoTaskRepository) Insert(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := r.tasks.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if isNoDocuments(err) {
		return nil, models.NotFoundError("Task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", id.Hex(), err)
	}
	return &task, nil
}

func (r *MongoTaskRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	if len(ids) == 0 {
		return []models.Task{}, nil
	}
	cursor, err := r.tasks.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	return decodeAll[models.Task](ctx, cursor)
}

func (r *MongoTaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := r.tasks.Find(ctx, taskListFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	return decodeAll[models.Task](ctx, cursor)
}

func (r *MongoTaskRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	result, err := r.tasks.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NotFoundError("Task not found")
	}
	return nil
}

func (r *MongoTaskRepository) Update(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate, now time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": id}, taskUpdateDoc(update, now))
}

func (r *MongoTaskRepository) SetStage(ctx context.Context, id primitive.ObjectID, stage models.Stage, now time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"stage": stage, "updatedAt": now}})
}

// SetTrashed leaves updatedAt alone so trash and restore are exact inverses.
func (r *MongoTaskRepository) SetTrashed(ctx context.Context, id primitive.ObjectID, trashed bool) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isTrashed": trashed}})
}

func (r *MongoTaskRepository) RestoreAll(ctx context.Context) (int64, error) {
	result, err := r.tasks.UpdateMany(ctx, bson.M{"isTrashed": true}, bson.M{"$set": bson.M{"isTrashed": false}})
	if err != nil {
		return 0, fmt.Errorf("failed to restore tasks: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id, "isTrashed": true})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return models.NotFoundError("Task not found in trash")
	}
	return nil
}

func (r *MongoTaskRepository) DeleteTrashed(ctx context.Context) (int64, error) {
	result, err := r.tasks.DeleteMany(ctx, bson.M{"isTrashed": true})
	if err != nil {
		return 0, fmt.Errorf("failed to delete trashed tasks: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *MongoTaskRepository) PushSubTask(ctx context.Context, id primitive.ObjectID, sub models.SubTask, now time.Time) error {
	update := bson.M{
		"$push": bson.M{"subTasks": sub},
		"$set":  bson.M{"updatedAt": now},
	}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *MongoTaskRepository) SetSubTaskCompleted(ctx context.Context, taskID, subTaskID primitive.ObjectID, completed bool, now time.Time) error {
	filter := bson.M{"_id": taskID, "subTasks._id": subTaskID}
	update := bson.M{"$set": bson.M{"subTasks.$.isCompleted": completed, "updatedAt": now}}
	result, err := r.tasks.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update subtask: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NotFoundError("Task or subtask not found")
	}
	return nil
}

func (r *MongoTaskRepository) PushActivity(ctx context.Context, id primitive.ObjectID, activity models.Activity, now time.Time) error {
	update := bson.M{
		"$push": bson.M{"activities": activity},
		"$set":  bson.M{"updatedAt": now},
	}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}
