package repositories

import (
	"regexp"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// searchAny matches term case-insensitively against any of fields.
func searchAny(term string, fields ...string) bson.A {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	or := bson.A{}
	for _, f := range fields {
		or = append(or, bson.M{f: pattern})
	}
	return or
}

func taskListFilter(f models.TaskFilter) bson.M {
	filter := bson.M{}
	if f.Trashed != nil {
		filter["isTrashed"] = *f.Trashed
	}
	if f.Stage != "" {
		filter["stage"] = f.Stage
	}
	if !f.Member.IsZero() {
		filter["team"] = f.Member
	}
	if f.Search != "" {
		filter["$or"] = searchAny(f.Search, "title", "stage", "priority")
	}
	return filter
}

func taskUpdateDoc(u models.TaskUpdate, now time.Time) bson.M {
	assets := u.Assets
	if assets == nil {
		assets = []string{}
	}
	links := u.Links
	if links == nil {
		links = []string{}
	}
	return bson.M{"$set": bson.M{
		"title":       u.Title,
		"date":        u.Date,
		"priority":    u.Priority,
		"assets":      assets,
		"stage":       u.Stage,
		"links":       links,
		"description": u.Description,
		"updatedAt":   now,
	}}
}

func userSearchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	return bson.M{"$or": searchAny(search, "title", "name", "role", "email")}
}

func unreadFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"isRead": bson.M{"$nin": bson.A{userID}}}
}

// markReadDoc only ever grows isRead.
func markReadDoc(userID primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"$addToSet": bson.M{"isRead": userID},
		"$set":      bson.M{"updatedAt": now},
	}
}
