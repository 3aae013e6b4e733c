package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/services"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.ValidationError("Invalid request body")
}

func pathID(r *http.Request, key, what string) (primitive.ObjectID, error) {
	return services.ParseID(mux.Vars(r)[key], what)
}

// formOrBody returns the decoded body value, falling back to the query string.
func formOrBody(r *http.Request, fromBody, key string) string {
	if fromBody != "" {
		return fromBody
	}
	return r.URL.Query().Get(key)
}
