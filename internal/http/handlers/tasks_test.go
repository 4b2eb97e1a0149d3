package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

// Fake repository implementation of handlers.TasksStore

type fakeTasksRepo struct {
	createFn func(ctx context.Context, t task.Task) (task.Task, error)
	getFn    func(ctx context.Context, id string) (task.Task, error)
	listFn   func(ctx context.Context, filter task.ListFilter, after *utils.TaskCursor) ([]task.Task, bool, error)
	updateFn func(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeTasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if f.createFn != nil {
		return f.createFn(ctx, t)
	}
	return t, nil
}

func (f *fakeTasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return task.Task{}, task.ErrNotFound
}

func (f *fakeTasksRepo) List(ctx context.Context, filter task.ListFilter, after *utils.TaskCursor) ([]task.Task, bool, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter, after)
	}
	return []task.Task{}, false, nil
}

func (f *fakeTasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return task.Task{}, task.ErrNotFound
}

func (f *fakeTasksRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func TestCreateTaskHandler(t *testing.T) {
	me := auth.Identity{ID: newUUID(), Role: "user", TokenVersion: 1}
	due := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeTasksRepo)
		wantStatusCode int
	}{
		{
			name:           "success",
			body:           `{"title":"Write docs","description":"API docs","dueDate":"` + due + `"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "validation_error",
			body:           `{"title":""}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_status",
			body:           `{"title":"Write docs","description":"d","dueDate":"` + due + `","status":"done"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"title":"Write docs","description":"API docs","dueDate":"` + due + `"}`,
			repoSetUp: func(f *fakeTasksRepo) {
				f.createFn = func(ctx context.Context, t task.Task) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeTasksRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewTasksHandler(repo)
			r := setupRouter(http.MethodPost, "/tasks", h.CreateTask, &me)

			w := doJSON(r, http.MethodPost, "/tasks", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if w.Code == http.StatusCreated {
				var got task.Task
				_ = json.Unmarshal(decodeEnvelope(t, w).Data, &got)
				if got.Status != task.StatusPending || got.CreatedBy != me.ID || got.ID == "" {
					t.Fatalf("unexpected task %+v", got)
				}
			}
		})
	}
}

func TestGetTaskHandler(t *testing.T) {
	id := newUUID()

	tests := []struct {
		name           string
		path           string
		getFn          func(ctx context.Context, id string) (task.Task, error)
		wantStatusCode int
	}{
		{
			name: "found",
			path: "/tasks/" + id,
			getFn: func(ctx context.Context, got string) (task.Task, error) {
				return task.Task{ID: got, Title: "x", Status: task.StatusPending}, nil
			},
			wantStatusCode: http.StatusOK,
		},
		{name: "not_found", path: "/tasks/" + id, wantStatusCode: http.StatusNotFound},
		{name: "bad_id", path: "/tasks/nope", wantStatusCode: http.StatusBadRequest},
		{
			name: "repo_error",
			path: "/tasks/" + id,
			getFn: func(ctx context.Context, id string) (task.Task, error) {
				return task.Task{}, errors.New("boom")
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewTasksHandler(&fakeTasksRepo{getFn: tt.getFn})
			r := setupRouter(http.MethodGet, "/tasks/:id", h.GetTask, nil)

			if w := doJSON(r, http.MethodGet, tt.path, ""); w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestTaskHandlers_BadIDMessage(t *testing.T) {
	h := handlers.NewTasksHandler(&fakeTasksRepo{})

	routes := []struct {
		method string
		h      gin.HandlerFunc
		body   string
	}{
		{method: http.MethodGet, h: h.GetTask},
		{method: http.MethodPut, h: h.UpdateTask, body: `{"title":"New title","status":"pending"}`},
		{method: http.MethodDelete, h: h.DeleteTask},
	}

	for _, rt := range routes {
		r := setupRouter(rt.method, "/tasks/:id", rt.h, nil)
		w := doJSON(r, rt.method, "/tasks/nope", rt.body)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", rt.method, w.Code)
		}
		if env := decodeEnvelope(t, w); env.Error != "Invalid task id" {
			t.Fatalf("%s: error = %q", rt.method, env.Error)
		}
	}
}

func TestGetTaskHandler_ETag(t *testing.T) {
	id := newUUID()
	h := handlers.NewTasksHandler(&fakeTasksRepo{getFn: func(ctx context.Context, got string) (task.Task, error) {
		return task.Task{ID: got, Title: "x", Status: task.StatusPending}, nil
	}})

	r := setupRouter(http.MethodGet, "/tasks/:id", h.GetTask, nil)

	first := doJSON(r, http.MethodGet, "/tasks/"+id, "")
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks/"+id, nil)
	req.Header.Set("If-None-Match", etag)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
}

func TestListTasksHandler(t *testing.T) {
	now := time.Now().UTC()
	items := []task.Task{
		{ID: newUUID(), Title: "a", Status: task.StatusPending, CreatedAt: now},
		{ID: newUUID(), Title: "b", Status: task.StatusPending, CreatedAt: now.Add(-time.Minute)},
	}

	var gotFilter task.ListFilter
	var gotAfter *utils.TaskCursor

	repo := &fakeTasksRepo{listFn: func(ctx context.Context, filter task.ListFilter, after *utils.TaskCursor) ([]task.Task, bool, error) {
		gotFilter, gotAfter = filter, after
		return items, true, nil
	}}

	h := handlers.NewTasksHandler(repo)
	r := setupRouter(http.MethodGet, "/tasks", h.ListTasks, nil)

	assignee := newUUID()
	w := doJSON(r, http.MethodGet, "/tasks?status=pending&limit=2&assignedUserId="+assignee, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d body=%s", w.Code, w.Body.String())
	}

	if gotFilter.Limit != 2 || gotFilter.Status == nil || *gotFilter.Status != "pending" ||
		gotFilter.AssignedUserID == nil || *gotFilter.AssignedUserID != assignee || gotAfter != nil {
		t.Fatalf("unexpected filter %+v after=%v", gotFilter, gotAfter)
	}

	var page handlers.TaskPage
	_ = json.Unmarshal(decodeEnvelope(t, w).Data, &page)
	if !page.HasMore || page.NextCursor == nil || page.Count != 2 {
		t.Fatalf("unexpected page %+v", page)
	}

	cur, err := utils.DecodeTaskCursor(*page.NextCursor)
	if err != nil || cur.ID != items[1].ID {
		t.Fatalf("next cursor should point at the last item: %+v %v", cur, err)
	}

	// follow the cursor
	w = doJSON(r, http.MethodGet, "/tasks?cursor="+*page.NextCursor, "")
	if w.Code != http.StatusOK || gotAfter == nil || gotAfter.ID != items[1].ID {
		t.Fatalf("cursor not passed through: status=%d after=%v", w.Code, gotAfter)
	}
	if gotFilter.Limit != 20 {
		t.Fatalf("default limit = %d", gotFilter.Limit)
	}
}

func TestListTasksHandler_BadQuery(t *testing.T) {
	h := handlers.NewTasksHandler(&fakeTasksRepo{})
	r := setupRouter(http.MethodGet, "/tasks", h.ListTasks, nil)

	for _, q := range []string{"limit=0", "limit=101", "limit=ten", "status=done", "cursor=not-base64!", "assignedUserId=bob"} {
		if w := doJSON(r, http.MethodGet, "/tasks?"+q, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got status %d, want 400", q, w.Code)
		}
	}
}

func TestUpdateTaskHandler(t *testing.T) {
	id := newUUID()

	h := handlers.NewTasksHandler(&fakeTasksRepo{updateFn: func(ctx context.Context, got string, req task.UpdateTaskRequest) (task.Task, error) {
		if got != id {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{ID: got, Title: req.Title, Status: req.Status}, nil
	}})
	r := setupRouter(http.MethodPut, "/tasks/:id", h.UpdateTask, nil)

	if w := doJSON(r, http.MethodPut, "/tasks/"+id, `{"title":"New title","status":"completed"}`); w.Code != http.StatusOK {
		t.Fatalf("got status %d body=%s", w.Code, w.Body.String())
	}
	if w := doJSON(r, http.MethodPut, "/tasks/"+newUUID(), `{"title":"New title","status":"completed"}`); w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
	if w := doJSON(r, http.MethodPut, "/tasks/"+id, `{"title":"New title"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
}

func TestDeleteTaskHandler(t *testing.T) {
	id := newUUID()

	h := handlers.NewTasksHandler(&fakeTasksRepo{deleteFn: func(ctx context.Context, got string) error {
		if got != id {
			return task.ErrNotFound
		}
		return nil
	}})
	r := setupRouter(http.MethodDelete, "/tasks/:id", h.DeleteTask, nil)

	if w := doJSON(r, http.MethodDelete, "/tasks/"+id, ""); w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/tasks/"+newUUID(), ""); w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}
