package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/access"
	"github.com/BuzzLyutic/tasklist/internal/i18n"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
	"github.com/BuzzLyutic/tasklist/pkg/respond"
)

// allLists selects every readable list in the list query parameter.
const allLists = -1

var errBadRequest = errors.New("bad request")

type TaskHandler struct {
	tasks   *service.TaskService
	query   *service.TaskQueryBuilder
	policy  *access.Policy
	catalog *i18n.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

func NewTaskHandler(tasks *service.TaskService, query *service.TaskQueryBuilder, policy *access.Policy,
	catalog *i18n.Catalog, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:   tasks,
		query:   query,
		policy:  policy,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// Routes mounts the task API under the caller's router.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/tasks", h.List)
	r.Post("/tasks/order", h.Reorder)
	r.Post("/tasks/parse", h.ParseTitle)
	r.Post("/tasks/new", h.NewCounts)
	r.Get("/tasks/{id}", h.Get)
	r.Put("/tasks/{id}", h.Edit)
	r.Delete("/tasks/{id}", h.Delete)
	r.Post("/tasks/{id}/complete", h.Complete)
	r.Put("/tasks/{id}/note", h.SetNote)
	r.Put("/tasks/{id}/priority", h.SetPriority)
	r.Post("/tasks/{id}/move", h.Move)
	r.Post("/lists/{list}/tasks", h.Add)
	r.Post("/lists/{list}/tasks/quick", h.QuickAdd)
}

// List serves a task listing. Query parameters: list (id, or -1 for every
// readable list), compl (1 shows completed), t (tag filter), s (search),
// sort (code or name), setCompl and saveSort (remember on the list).
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listID, err := strconv.ParseInt(q.Get("list"), 10, 64)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid list")
		return
	}

	readable, err := h.policy.Readable(r.Context(), access.Login(r.Context()))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	scope := readable
	if listID != allLists {
		scope = model.ListScope{}
		if readable.Contains(listID) {
			scope = model.SingleList(listID)
		}
	}

	var sort model.SortMode
	if s := q.Get("sort"); s != "" {
		if sort, err = model.ParseSortMode(s); err != nil {
			respond.Error(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	req := service.QueryRequest{
		Scope:         scope,
		ShowCompleted: q.Get("compl") == "1",
		Tags:          service.ParseTagFilter(q.Get("t")),
		Search:        q.Get("s"),
		Sort:          sort,
	}
	// preferences are only saved on lists the caller may change
	if canWrite, err := h.canWrite(r, scope); err != nil {
		h.handleErrors(w, r, err)
		return
	} else if canWrite {
		req.SaveShowCompleted = q.Get("setCompl") == "1"
		req.SaveSort = q.Get("saveSort") == "1"
	}

	tasks, err := h.query.Query(r.Context(), req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	views := newTaskViews(tasks, h.labels(r), h.now())
	respond.List(w, r, http.StatusOK, int64(len(views)), views)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	readable, err := h.policy.Readable(r.Context(), access.Login(r.Context()))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	task, err := h.query.Get(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if !readable.Contains(task.ListID) {
		h.handleErrors(w, r, repo.ErrorNotFound)
		return
	}
	respond.JSON(w, r, http.StatusOK, newTaskView(task, h.labels(r), h.now()))
}

type quickAddRequest struct {
	Title string `json:"title"`
	// Tag is the caller's current tag filter, used for autotagging.
	Tag string `json:"tag"`
}

func (h *TaskHandler) QuickAdd(w http.ResponseWriter, r *http.Request) {
	listID, err := idParam(r, "list")
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	var req quickAddRequest
	if !h.decode(w, r, &req) {
		return
	}
	scope, ok := h.writable(w, r)
	if !ok {
		return
	}

	res, err := h.tasks.QuickAdd(r.Context(), scope, listID, req.Title, service.ParseTagFilter(req.Tag))
	h.result(w, r, http.StatusCreated, res, err)
}

type taskRequest struct {
	Title    string `json:"title"`
	Note     string `json:"note"`
	Priority int    `json:"priority"`
	DueDate  string `json:"due_date"`
	Tags     string `json:"tags"`
	Tag      string `json:"tag"`
}

func (req taskRequest) input() service.TaskInput {
	return service.TaskInput{
		Title:    req.Title,
		Note:     req.Note,
		Priority: req.Priority,
		DueDate:  req.DueDate,
		Tags:     req.Tags,
	}
}

func (h *TaskHandler) Add(w http.ResponseWriter, r *http.Request) {
	listID, err := idParam(r, "list")
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	var req taskRequest
	if !h.decode(w, r, &req) {
		return
	}
	scope, ok := h.writable(w, r)
	if !ok {
		return
	}

	res, err := h.tasks.Add(r.Context(), scope, listID, req.input(), service.ParseTagFilter(req.Tag))
	h.result(w, r, http.StatusCreated, res, err)
}

func (h *TaskHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	h.mutate(w, r, &req, func(scope model.ListScope, id int64) (service.Result, error) {
		return h.tasks.Edit(r.Context(), scope, id, req.input())
	})
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed bool `json:"completed"`
	}
	h.mutate(w, r, &req, func(scope model.ListScope, id int64) (service.Result, error) {
		return h.tasks.Complete(r.Context(), scope, id, req.Completed)
	})
}

func (h *TaskHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	h.mutate(w, r, &req, func(scope model.ListScope, id int64) (service.Result, error) {
		return h.tasks.SetNote(r.Context(), scope, id, req.Note)
	})
}

func (h *TaskHandler) SetPriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority int `json:"priority"`
	}
	h.mutate(w, r, &req, func(scope model.ListScope, id int64) (service.Result, error) {
		return h.tasks.SetPriority(r.Context(), scope, id, req.Priority)
	})
}

func (h *TaskHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To int64 `json:"to"`
	}
	h.mutate(w, r, &req, func(scope model.ListScope, id int64) (service.Result, error) {
		return h.tasks.Move(r.Context(), scope, id, req.To)
	})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(scope model.ListScope, id int64) (service.Result, error) {
		return h.tasks.Delete(r.Context(), scope, id)
	})
}

func (h *TaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []model.OrderDelta `json:"order"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	scope, ok := h.writable(w, r)
	if !ok {
		return
	}

	res, err := h.tasks.Reorder(r.Context(), scope, req.Order)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.List(w, r, http.StatusOK, res.Affected, []TaskView{})
}

func (h *TaskHandler) ParseTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	respond.JSON(w, r, http.StatusOK, h.tasks.ParseTitle(req.Title))
}

type newCountsRequest struct {
	// Lists maps list id to the time the caller last looked at it.
	Lists map[int64]time.Time `json:"lists"`
	List  int64               `json:"list"`
	Since time.Time           `json:"since"`
}

// NewCounts reports how many tasks were created in each list since the
// caller last looked, and which ones in the current list.
func (h *TaskHandler) NewCounts(w http.ResponseWriter, r *http.Request) {
	var req newCountsRequest
	if !h.decode(w, r, &req) {
		return
	}
	readable, err := h.policy.Readable(r.Context(), access.Login(r.Context()))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	counts, err := h.query.CountNew(r.Context(), readable, req.Lists, req.List, req.Since)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, counts)
}

// mutate runs a per-task operation with the caller's writable scope. body,
// when non-nil, is decoded from the request first.
func (h *TaskHandler) mutate(w http.ResponseWriter, r *http.Request, body any,
	op func(scope model.ListScope, id int64) (service.Result, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if body != nil && !h.decode(w, r, body) {
		return
	}
	scope, ok := h.writable(w, r)
	if !ok {
		return
	}

	res, err := op(scope, id)
	h.result(w, r, http.StatusOK, res, err)
}

func (h *TaskHandler) result(w http.ResponseWriter, r *http.Request, code int, res service.Result, err error) {
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	views := []TaskView{}
	if res.Task != nil && res.Task.ListID != 0 {
		views = append(views, newTaskView(*res.Task, h.labels(r), h.now()))
	}
	if res.Affected == 0 {
		code = http.StatusOK
	}
	respond.List(w, r, code, res.Affected, views)
}

func (h *TaskHandler) writable(w http.ResponseWriter, r *http.Request) (model.ListScope, bool) {
	scope, err := h.policy.Writable(r.Context(), access.Login(r.Context()))
	if err != nil {
		h.handleErrors(w, r, err)
		return scope, false
	}
	return scope, true
}

func (h *TaskHandler) canWrite(r *http.Request, scope model.ListScope) (bool, error) {
	if len(scope.IDs) != 1 {
		return false, nil
	}
	return h.policy.CanWrite(r.Context(), access.Login(r.Context()), scope.IDs[0])
}

func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func (h *TaskHandler) labels(r *http.Request) i18n.Labels {
	return h.catalog.For(r.Header.Get("Accept-Language"))
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, errBadRequest):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", zap.Error(err), zap.String("path", r.URL.Path))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
