package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/harlequingg/taskplanner/internal/storage"
)

var (
	ErrNoSession              = errors.New("no user is logged in")
	ErrMalformedPersistedData = errors.New("malformed persisted task list")
)

// SessionSource reports the username whose tasks the store operates on.
type SessionSource interface {
	CurrentUser() (string, bool)
}

// Store is the in-memory task collection of the current user, mirrored to
// storage under tasks.<username>. Every mutation is applied to a copy, written
// in full, and only then made current, so memory and storage stay equal even
// when a write fails.
//
// Store is not safe for concurrent use; callers serialize access.
type Store struct {
	kv      storage.Store
	session SessionSource
	now     func() time.Time
	newID   func() (string, error)

	owner string
	tasks []Task
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

func NewStore(kv storage.Store, session SessionSource, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		session: session,
		now:     time.Now,
		newID:   newV7ID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newV7ID returns a time-ordered UUID; its leading bits are the creation
// millisecond.
func newV7ID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Load replaces the in-memory collection with the persisted one of the current
// user. An absent or malformed list loads as empty.
func (s *Store) Load(ctx context.Context) ([]Task, error) {
	user, ok := s.session.CurrentUser()
	if !ok {
		s.Reset()
		return []Task{}, nil
	}
	data, err := s.kv.Get(ctx, storage.TasksKey(user))
	if err != nil {
		return nil, fmt.Errorf("task: load %q: %w", user, err)
	}
	tasks, err := decodeTasks(data)
	if err != nil {
		log.Printf("task: treating tasks of %q as empty: %v", user, err)
		tasks = []Task{}
	}
	s.owner = user
	s.tasks = tasks
	return s.Tasks(), nil
}

// Reset drops the in-memory collection without touching storage.
func (s *Store) Reset() {
	s.owner = ""
	s.tasks = nil
}

// Tasks returns a copy of the collection in its current order.
func (s *Store) Tasks() []Task {
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.clone())
	}
	return out
}

// Add appends a new pending task built from f.
func (s *Store) Add(ctx context.Context, f Fields) (Task, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return Task{}, err
	}
	var added Task
	ok, err := s.mutate(ctx, func(tasks []Task) ([]Task, bool, error) {
		id, err := s.newID()
		if err != nil {
			return nil, false, fmt.Errorf("task: generate id: %w", err)
		}
		added = Task{
			ID:          id,
			Title:       f.Title,
			Description: f.Description,
			Priority:    f.Priority,
			Deadline:    f.Deadline,
			Category:    f.Category,
			IsUrgent:    f.IsUrgent,
			Completed:   false,
			CreatedAt:   s.now(),
			Comments:    []Comment{},
		}
		return append(tasks, added), true, nil
	})
	if err != nil {
		return Task{}, err
	}
	if !ok {
		return Task{}, ErrNoSession
	}
	return added.clone(), nil
}

// Delete removes the task with the given id. It reports whether a task was
// removed; an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	_, err := s.mutate(ctx, func(tasks []Task) ([]Task, bool, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return tasks, false, nil
		}
		removed = true
		return slices.Delete(tasks, i, i+1), true, nil
	})
	return removed, err
}

// ToggleComplete flips the completed flag of the task with the given id.
func (s *Store) ToggleComplete(ctx context.Context, id string) (Task, bool, error) {
	return s.update(ctx, id, func(t *Task) {
		t.Completed = !t.Completed
	})
}

// AddComment appends a comment dated now. The text is stored as given.
func (s *Store) AddComment(ctx context.Context, id, text string) (Task, bool, error) {
	return s.update(ctx, id, func(t *Task) {
		t.Comments = append(t.Comments, Comment{
			Text: text,
			Date: s.now().Format(time.RFC3339),
		})
	})
}

// SortByPriority orders the collection high, medium, low. Tasks of equal
// priority keep their relative order.
func (s *Store) SortByPriority(ctx context.Context) error {
	_, err := s.mutate(ctx, func(tasks []Task) ([]Task, bool, error) {
		slices.SortStableFunc(tasks, func(a, b Task) int {
			return b.Priority.Rank() - a.Priority.Rank()
		})
		return tasks, true, nil
	})
	return err
}

// Filter returns the tasks matching f in collection order. It never mutates
// or persists.
func (s *Store) Filter(ctx context.Context, f Filter) ([]Task, error) {
	if f == "" {
		f = FilterAll
	}
	if f != FilterAll && f != FilterCompleted && f != FilterPending {
		return nil, fmt.Errorf("%w %q", ErrUnknownFilter, f)
	}
	if _, ok, err := s.scope(ctx); err != nil || !ok {
		return []Task{}, err
	}
	out := []Task{}
	for _, t := range s.tasks {
		if f.match(t) {
			out = append(out, t.clone())
		}
	}
	return out, nil
}

func (s *Store) update(ctx context.Context, id string, fn func(*Task)) (Task, bool, error) {
	var updated Task
	var found bool
	_, err := s.mutate(ctx, func(tasks []Task) ([]Task, bool, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return tasks, false, nil
		}
		fn(&tasks[i])
		updated = tasks[i]
		found = true
		return tasks, true, nil
	})
	if err != nil || !found {
		return Task{}, false, err
	}
	return updated.clone(), true, nil
}

// scope makes sure the in-memory collection belongs to the current user,
// loading it when the session has changed since the last load.
func (s *Store) scope(ctx context.Context) (string, bool, error) {
	user, ok := s.session.CurrentUser()
	if !ok {
		s.Reset()
		return "", false, nil
	}
	if user != s.owner || s.tasks == nil {
		if _, err := s.Load(ctx); err != nil {
			return "", false, err
		}
	}
	return user, true, nil
}

// mutate runs fn on a copy of the collection and, when fn reports a change,
// persists the result before making it current. It reports whether a session
// was active.
func (s *Store) mutate(ctx context.Context, fn func([]Task) ([]Task, bool, error)) (bool, error) {
	user, ok, err := s.scope(ctx)
	if err != nil || !ok {
		return false, err
	}
	next, changed, err := fn(s.Tasks())
	if err != nil {
		return true, err
	}
	if !changed {
		return true, nil
	}
	data, err := json.Marshal(next)
	if err != nil {
		return true, fmt.Errorf("task: encode tasks of %q: %w", user, err)
	}
	if err := s.kv.Set(ctx, storage.TasksKey(user), data); err != nil {
		return true, fmt.Errorf("task: save tasks of %q: %w", user, err)
	}
	s.tasks = next
	return true, nil
}

func decodeTasks(data []byte) ([]Task, error) {
	if data == nil {
		return []Task{}, nil
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPersistedData, err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func indexOf(tasks []Task, id string) int {
	return slices.IndexFunc(tasks, func(t Task) bool {
		return t.ID == id
	})
}
