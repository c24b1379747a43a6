// Package crud serves list/retrieve/create/update/destroy for one resource
// type over HTTP. The resource is described by a Config instead of a type
// hierarchy: entity name, envelope messages, validator and repository.
package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tasks-api/internal/logger"
)

// Messages are the envelope texts returned by the mutating operations.
type Messages struct {
	Created string
	Updated string
	Deleted string
}

// DefaultMessages builds "<Entity> created successfully" style messages.
func DefaultMessages(entityName string) Messages {
	return Messages{
		Created: entityName + " created successfully",
		Updated: entityName + " updated successfully",
		Deleted: entityName + " deleted successfully",
	}
}

// Validator turns a decoded payload into an entity. existing is nil on
// create. Any returned error is treated as a validation failure.
type Validator[T any] interface {
	Validate(input any, existing *T, partial bool) (T, error)
}

// Repository is the persistence gateway for one entity type.
type Repository[T any, F any] interface {
	List(ctx context.Context, filter F) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id int64, item T) (T, error)
	Delete(ctx context.Context, id int64) error
}

type Config[T any, F any] struct {
	EntityName string
	Messages   Messages
	Validator  Validator[T]
	Repository Repository[T, F]

	// Filter builds the list filter from the request. Nil means the zero F.
	Filter func(r *http.Request) F

	// NotFound is the repository error (matched with errors.Is) for a
	// missing id.
	NotFound error

	// MaxBodyBytes caps request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
}

type Handler[T any, F any] struct {
	cfg Config[T, F]
}

func New[T any, F any](cfg Config[T, F]) *Handler[T, F] {
	if cfg.Messages == (Messages{}) {
		cfg.Messages = DefaultMessages(cfg.EntityName)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Handler[T, F]{cfg: cfg}
}

// Routes registers the five operations on r. Mount it under the collection
// path, e.g. r.Route("/tasks", h.Routes).
func (h *Handler[T, F]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Retrieve)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Destroy)
}

// List handles GET /. Entities are returned as a bare JSON array.
func (h *Handler[T, F]) List(w http.ResponseWriter, r *http.Request) {
	var filter F
	if h.cfg.Filter != nil {
		filter = h.cfg.Filter(r)
	}

	items, err := h.cfg.Repository.List(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, err, "list")
		return
	}
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, items)
}

// Retrieve handles GET /{id}.
func (h *Handler[T, F]) Retrieve(w http.ResponseWriter, r *http.Request) {
	_, item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// Create handles POST /. Only the envelope is returned, not the entity.
func (h *Handler[T, F]) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decode(w, r)
	if !ok {
		return
	}

	draft, err := h.cfg.Validator.Validate(input, nil, false)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.cfg.Repository.Create(r.Context(), draft); err != nil {
		h.serverError(w, r, err, "create")
		return
	}
	writeMessage(w, http.StatusCreated, h.cfg.Messages.Created)
}

// Update handles PUT /{id} and PATCH /{id}; PATCH validates only the
// supplied fields.
func (h *Handler[T, F]) Update(w http.ResponseWriter, r *http.Request) {
	id, existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	input, ok := h.decode(w, r)
	if !ok {
		return
	}

	partial := r.Method == http.MethodPatch
	draft, err := h.cfg.Validator.Validate(input, &existing, partial)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.cfg.Repository.Update(r.Context(), id, draft); err != nil {
		if h.isNotFound(err) {
			writeNotFound(w)
			return
		}
		h.serverError(w, r, err, "update")
		return
	}
	writeMessage(w, http.StatusOK, h.cfg.Messages.Updated)
}

// Destroy handles DELETE /{id}. It answers 200 with an envelope.
func (h *Handler[T, F]) Destroy(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.cfg.Repository.Delete(r.Context(), id); err != nil {
		if h.isNotFound(err) {
			writeNotFound(w)
			return
		}
		h.serverError(w, r, err, "destroy")
		return
	}
	writeMessage(w, http.StatusOK, h.cfg.Messages.Deleted)
}

// lookup fetches the entity named by the {id} URL parameter. It writes the
// 404 or 500 response itself and reports whether the caller may continue.
func (h *Handler[T, F]) lookup(w http.ResponseWriter, r *http.Request) (int64, T, bool) {
	var zero T

	// ids that are not integers cannot exist
	id, err := parseID(r)
	if err != nil {
		writeNotFound(w)
		return 0, zero, false
	}

	item, err := h.cfg.Repository.Get(r.Context(), id)
	if err != nil {
		if h.isNotFound(err) {
			writeNotFound(w)
			return 0, zero, false
		}
		h.serverError(w, r, err, "retrieve")
		return 0, zero, false
	}
	return id, item, true
}

// decode reads a JSON or form-encoded body into a generic value. An empty
// body decodes to an empty object.
func (h *Handler[T, F]) decode(w http.ResponseWriter, r *http.Request) (any, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return decodeForm(w, r, mediaType, h.cfg.MaxBodyBytes)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return nil, false
		}
		writeDetail(w, http.StatusBadRequest, "Could not read request body.")
		return nil, false
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, true
	}

	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return nil, false
	}
	return input, true
}

func decodeForm(w http.ResponseWriter, r *http.Request, mediaType string, limit int64) (any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(limit)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Form parse error - "+err.Error())
		return nil, false
	}

	input := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			input[key] = values[len(values)-1]
		}
	}
	return input, true
}

func (h *Handler[T, F]) isNotFound(err error) bool {
	return h.cfg.NotFound != nil && errors.Is(err, h.cfg.NotFound)
}

func (h *Handler[T, F]) serverError(w http.ResponseWriter, r *http.Request, err error, op string) {
	logger.Error(r.Context(), err, fmt.Sprintf("%s %s failed", h.cfg.EntityName, op))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
