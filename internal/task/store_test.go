package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/harlequingg/taskplanner/internal/storage"
)

type fakeSession struct {
	user string
}

func (f *fakeSession) CurrentUser() (string, bool) {
	return f.user, f.user != ""
}

type failingStore struct {
	storage.Store
	failSet bool
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

var testNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newTestStore(kv storage.Store, session SessionSource) *Store {
	n := 0
	return NewStore(kv, session,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() (string, error) {
			n++
			return fmt.Sprintf("task-%02d", n), nil
		}),
	)
}

func mustAdd(t *testing.T, s *Store, title string, p Priority) Task {
	t.Helper()
	added, err := s.Add(context.Background(), Fields{Title: title, Priority: p})
	if err != nil {
		t.Fatalf("Add(%q): %v", title, err)
	}
	return added
}

func titles(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestAddSetsDefaults(t *testing.T) {
	s := newTestStore(storage.NewMemoryStore(), &fakeSession{user: "alice"})

	got, err := s.Add(context.Background(), Fields{Title: "  write report ", Deadline: "2026-10-20"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.ID != "task-01" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Title != "write report" {
		t.Errorf("Title = %q, want trimmed", got.Title)
	}
	if got.Priority != PriorityHigh || got.Category != CategoryWork {
		t.Errorf("defaults = %s/%s, want high/work", got.Priority, got.Category)
	}
	if got.Completed {
		t.Error("new task is completed")
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testNow)
	}
	if got.Comments == nil || len(got.Comments) != 0 {
		t.Errorf("Comments = %#v, want empty", got.Comments)
	}
}

func TestAddValidates(t *testing.T) {
	s := newTestStore(storage.NewMemoryStore(), &fakeSession{user: "alice"})

	tests := []struct {
		name   string
		fields Fields
	}{
		{"missing title", Fields{Title: " "}},
		{"bad priority", Fields{Title: "x", Priority: "urgent"}},
		{"bad category", Fields{Title: "x", Category: "chores"}},
		{"bad deadline", Fields{Title: "x", Deadline: "18/10/2026"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Add(context.Background(), tt.fields); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if len(s.Tasks()) != 0 {
		t.Errorf("invalid adds changed the collection: %v", titles(s.Tasks()))
	}
}

func TestTasksPersistInOrderPerUser(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	session := &fakeSession{user: "alice"}
	s := newTestStore(kv, session)

	want := []string{"one", "two", "three"}
	for _, title := range want {
		mustAdd(t, s, title, PriorityLow)
	}

	restarted := newTestStore(kv, session)
	got, err := restarted.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(titles(got), want) {
		t.Errorf("Load = %v, want %v", titles(got), want)
	}

	session.user = "bob"
	got, err = restarted.Load(ctx)
	if err != nil {
		t.Fatalf("Load bob: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("bob sees alice's tasks: %v", titles(got))
	}
}

func TestStoreFollowsSessionChanges(t *testing.T) {
	kv := storage.NewMemoryStore()
	session := &fakeSession{user: "alice"}
	s := newTestStore(kv, session)
	mustAdd(t, s, "alice task", PriorityHigh)

	session.user = "bob"
	mustAdd(t, s, "bob task", PriorityHigh)
	if got := titles(s.Tasks()); !slices.Equal(got, []string{"bob task"}) {
		t.Errorf("bob's collection = %v", got)
	}

	session.user = "alice"
	all, err := s.Filter(context.Background(), FilterAll)
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(all); !slices.Equal(got, []string{"alice task"}) {
		t.Errorf("alice's collection = %v", got)
	}
}

func TestNoSession(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := newTestStore(kv, &fakeSession{})

	if _, err := s.Add(ctx, Fields{Title: "orphan"}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Add error = %v, want ErrNoSession", err)
	}
	if removed, err := s.Delete(ctx, "task-01"); err != nil || removed {
		t.Errorf("Delete = %v, %v", removed, err)
	}
	if _, found, err := s.ToggleComplete(ctx, "task-01"); err != nil || found {
		t.Errorf("ToggleComplete = %v, %v", found, err)
	}
	if err := s.SortByPriority(ctx); err != nil {
		t.Errorf("SortByPriority: %v", err)
	}
	tasks, err := s.Filter(ctx, FilterAll)
	if err != nil || len(tasks) != 0 {
		t.Errorf("Filter = %v, %v; want empty", tasks, err)
	}
	loaded, err := s.Load(ctx)
	if err != nil || len(loaded) != 0 {
		t.Errorf("Load = %v, %v; want empty", loaded, err)
	}
}

func TestSortByPriority(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore(), &fakeSession{user: "alice"})

	mustAdd(t, s, "m", PriorityMedium)
	mustAdd(t, s, "h1", PriorityHigh)
	mustAdd(t, s, "l", PriorityLow)
	mustAdd(t, s, "h2", PriorityHigh)

	if err := s.SortByPriority(ctx); err != nil {
		t.Fatalf("SortByPriority: %v", err)
	}
	want := []string{"h1", "h2", "m", "l"}
	once := titles(s.Tasks())
	if !slices.Equal(once, want) {
		t.Fatalf("sorted = %v, want %v", once, want)
	}

	if err := s.SortByPriority(ctx); err != nil {
		t.Fatalf("SortByPriority again: %v", err)
	}
	if twice := titles(s.Tasks()); !slices.Equal(twice, once) {
		t.Errorf("sort is not idempotent: %v then %v", once, twice)
	}

	persisted, err := newTestStore(s.kv, s.session).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(persisted); !slices.Equal(got, want) {
		t.Errorf("persisted order = %v, want %v", got, want)
	}
}

func TestSortByPriorityRanksUnknownLast(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	raw := `[{"id":"a","title":"odd","priority":"someday"},{"id":"b","title":"low","priority":"low"}]`
	if err := kv.Set(ctx, storage.TasksKey("alice"), []byte(raw)); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(kv, &fakeSession{user: "alice"})
	if err := s.SortByPriority(ctx); err != nil {
		t.Fatal(err)
	}
	if got := titles(s.Tasks()); !slices.Equal(got, []string{"low", "odd"}) {
		t.Errorf("sorted = %v", got)
	}
}

func TestToggleCompleteIsInvolution(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore(), &fakeSession{user: "alice"})
	added := mustAdd(t, s, "toggle me", PriorityMedium)

	first, found, err := s.ToggleComplete(ctx, added.ID)
	if err != nil || !found {
		t.Fatalf("ToggleComplete = %v, %v", found, err)
	}
	if !first.Completed {
		t.Error("first toggle did not complete the task")
	}
	second, _, err := s.ToggleComplete(ctx, added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second.Completed != added.Completed {
		t.Errorf("completed = %v after two toggles, want %v", second.Completed, added.Completed)
	}

	if _, found, err := s.ToggleComplete(ctx, "missing"); err != nil || found {
		t.Errorf("ToggleComplete(missing) = %v, %v", found, err)
	}
}

func TestDeleteTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore(), &fakeSession{user: "alice"})
	a := mustAdd(t, s, "a", PriorityHigh)
	mustAdd(t, s, "b", PriorityHigh)

	removed, err := s.Delete(ctx, a.ID)
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	before := titles(s.Tasks())
	removed, err = s.Delete(ctx, a.ID)
	if err != nil || removed {
		t.Fatalf("second Delete = %v, %v; want no-op", removed, err)
	}
	if after := titles(s.Tasks()); !slices.Equal(before, after) {
		t.Errorf("second delete changed collection: %v -> %v", before, after)
	}
	if !slices.Equal(before, []string{"b"}) {
		t.Errorf("collection = %v, want [b]", before)
	}
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore(), &fakeSession{user: "alice"})
	added := mustAdd(t, s, "discuss", PriorityLow)

	if _, _, err := s.AddComment(ctx, added.ID, "first"); err != nil {
		t.Fatal(err)
	}
	got, found, err := s.AddComment(ctx, added.ID, "nice")
	if err != nil || !found {
		t.Fatalf("AddComment = %v, %v", found, err)
	}
	want := []Comment{
		{Text: "first", Date: testNow.Format(time.RFC3339)},
		{Text: "nice", Date: testNow.Format(time.RFC3339)},
	}
	if !slices.Equal(got.Comments, want) {
		t.Errorf("Comments = %#v, want %#v", got.Comments, want)
	}

	empty, _, err := s.AddComment(ctx, added.ID, "")
	if err != nil {
		t.Fatalf("empty comment: %v", err)
	}
	if n := len(empty.Comments); n != 3 || empty.Comments[2].Text != "" {
		t.Errorf("empty comment not appended as given: %#v", empty.Comments)
	}
}

func TestReturnedTasksDoNotAliasStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore(), &fakeSession{user: "alice"})
	added := mustAdd(t, s, "a", PriorityLow)
	withComment, _, err := s.AddComment(ctx, added.ID, "kept")
	if err != nil {
		t.Fatal(err)
	}
	withComment.Comments[0].Text = "changed"

	if got := s.Tasks()[0].Comments[0].Text; got != "kept" {
		t.Errorf("caller mutation leaked into store: %q", got)
	}
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore(), &fakeSession{user: "alice"})
	for _, title := range []string{"a", "b", "c", "d"} {
		mustAdd(t, s, title, PriorityHigh)
	}
	for _, id := range []string{"task-01", "task-03"} {
		if _, _, err := s.ToggleComplete(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"a", "b", "c", "d"}},
		{FilterCompleted, []string{"a", "c"}},
		{FilterPending, []string{"b", "d"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got, err := s.Filter(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(titles(got), tt.want) {
				t.Errorf("Filter(%s) = %v, want %v", tt.filter, titles(got), tt.want)
			}
		})
	}

	if _, err := s.Filter(ctx, "overdue"); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("unknown filter error = %v", err)
	}
}

func TestLoadMalformedListIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	if err := kv.Set(ctx, storage.TasksKey("alice"), []byte(`{not json`)); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(kv, &fakeSession{user: "alice"})

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load = %v, want empty", got)
	}

	mustAdd(t, s, "fresh", PriorityLow)
	reloaded, err := newTestStore(kv, s.session).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(titles(reloaded), []string{"fresh"}) {
		t.Errorf("reloaded = %v", titles(reloaded))
	}
}

func TestLoadMalformedCommentsAreEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	raw := `[
		{"id":"a","title":"string comments","priority":"high","comments":"oops"},
		{"id":"b","title":"no comments","priority":"low"},
		{"id":"c","title":"ok","priority":"low","comments":[{"text":"hi","date":"d"}]}
	]`
	if err := kv.Set(ctx, storage.TasksKey("alice"), []byte(raw)); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(kv, &fakeSession{user: "alice"})

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("Load returned %d tasks, want 3", len(got))
	}
	for _, tk := range got[:2] {
		if tk.Comments == nil || len(tk.Comments) != 0 {
			t.Errorf("%s: Comments = %#v, want empty", tk.ID, tk.Comments)
		}
	}
	if len(got[2].Comments) != 1 || got[2].Comments[0].Text != "hi" {
		t.Errorf("valid comments lost: %#v", got[2].Comments)
	}

	updated, _, err := s.AddComment(ctx, "a", "recovered")
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Comments) != 1 || updated.Comments[0].Text != "recovered" {
		t.Errorf("Comments = %#v", updated.Comments)
	}
}

func TestFailedWriteLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingStore{Store: storage.NewMemoryStore()}
	s := newTestStore(kv, &fakeSession{user: "alice"})
	added := mustAdd(t, s, "stable", PriorityLow)

	kv.failSet = true
	if _, err := s.Add(ctx, Fields{Title: "lost"}); err == nil {
		t.Error("Add succeeded despite failing storage")
	}
	if _, _, err := s.ToggleComplete(ctx, added.ID); err == nil {
		t.Error("ToggleComplete succeeded despite failing storage")
	}
	if got := s.Tasks(); len(got) != 1 || got[0].Completed {
		t.Errorf("memory diverged from storage: %#v", got)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"ALL", FilterAll, false},
		{"completed", FilterCompleted, false},
		{" pending ", FilterPending, false},
		{"done", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilter(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
