package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/store"
	"ledgerdesk/pkg/utils"
	"ledgerdesk/pkg/validation"
)

// RegisterRecords registers the generic record CRUD routes. All record
// collections are firm-side data, so the whole subtree is staff-gated.
func RegisterRecords(r *mux.Router) {
	r.Handle("/records/{collection}", staffOnly(listRecords)).Methods(http.MethodGet)
	r.Handle("/records/{collection}", staffOnly(createRecord)).Methods(http.MethodPost)
	r.Handle("/records/{collection}/{id}", staffOnly(getRecord)).Methods(http.MethodGet)
	r.Handle("/records/{collection}/{id}", staffOnly(updateRecord)).Methods(http.MethodPut)
	r.Handle("/records/{collection}/{id}", staffOnly(deleteRecord)).Methods(http.MethodDelete)
}

func collectionVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	c := mux.Vars(r)["collection"]
	if !models.KnownCollection(c) {
		utils.JSONError(w, http.StatusNotFound, "unknown collection: "+c)
		return "", false
	}
	return c, true
}

// listRecords handles GET /records/{collection}.
func listRecords(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionVar(w, r)
	if !ok {
		return
	}
	vals, err := store.ListRecords(collection)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"records": out})
}

// createRecord handles POST /records/{collection}. The body is a free
// JSON object checked against the collection's configured rules; an id
// is assigned when absent.
func createRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionVar(w, r)
	if !ok {
		return
	}
	var rec map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, _ := rec["id"].(string)
	if id == "" {
		id = utils.NewID()
		rec["id"] = id
	}
	if err := validation.ValidateRecord(collection, rec); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := json.Marshal(rec)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "marshal failed")
		return
	}
	if err := store.SaveRecord(collection, id, b); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, rec)
}

// getRecord handles GET /records/{collection}/{id}.
func getRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionVar(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	b, err := store.GetRecord(collection, id)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

// updateRecord handles PUT /records/{collection}/{id}. The path id
// wins over any id in the body.
func updateRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionVar(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := store.GetRecord(collection, id); err != nil {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	var rec map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	rec["id"] = id
	if err := validation.ValidateRecord(collection, rec); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := json.Marshal(rec)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "marshal failed")
		return
	}
	if err := store.SaveRecord(collection, id, b); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, rec)
}

// deleteRecord handles DELETE /records/{collection}/{id}.
func deleteRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionVar(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := store.GetRecord(collection, id); err != nil {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := store.DeleteRecord(collection, id); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
