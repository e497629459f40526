package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"smartvote/internal/delivery/http/helpers"
)

// eventIDParam returns the eventID path value. Ids that are not UUIDs cannot
// exist, so they answer 404 without reaching the store.
func eventIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(r.PathValue("eventID"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeEventNotFound, "event not found")
		return "", false
	}
	return id.String(), true
}

func recordIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(r.PathValue("recordID"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "registration not found")
		return "", false
	}
	return id.String(), true
}
