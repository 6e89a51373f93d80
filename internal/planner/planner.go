// Package planner ties the account manager and the task store together behind
// a single lock, the way a UI event loop would serialize user actions.
package planner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/harlequingg/taskplanner/internal/account"
	"github.com/harlequingg/taskplanner/internal/storage"
	"github.com/harlequingg/taskplanner/internal/task"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Planner struct {
	mu       sync.Mutex
	kv       storage.Store
	accounts *account.Manager
	tasks    *task.Store
}

type options struct {
	account []account.Option
	task    []task.Option
}

type Option func(*options)

func WithAccountOptions(opts ...account.Option) Option {
	return func(o *options) {
		o.account = append(o.account, opts...)
	}
}

func WithTaskOptions(opts ...task.Option) Option {
	return func(o *options) {
		o.task = append(o.task, opts...)
	}
}

func New(kv storage.Store, opts ...Option) *Planner {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	accounts := account.NewManager(kv, o.account...)
	return &Planner{
		kv:       kv,
		accounts: accounts,
		tasks:    task.NewStore(kv, accounts.Session(), o.task...),
	}
}

// Open restores the persisted session, if any, and loads its tasks.
func (p *Planner) Open(ctx context.Context) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok, err := p.accounts.RestoreSession(ctx)
	if err != nil {
		return "", false, err
	}
	if _, err := p.tasks.Load(ctx); err != nil {
		return "", false, err
	}
	return user, ok, nil
}

func (p *Planner) CurrentUser() (string, bool) {
	return p.accounts.Session().CurrentUser()
}

func (p *Planner) CreateProfile(ctx context.Context, username, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.accounts.CreateProfile(ctx, username, password); err != nil {
		return err
	}
	_, err := p.tasks.Load(ctx)
	return err
}

func (p *Planner) Login(ctx context.Context, username, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.accounts.Login(ctx, username, password); err != nil {
		return err
	}
	_, err := p.tasks.Load(ctx)
	return err
}

// Logout clears the session and the in-memory tasks. Persisted tasks stay.
func (p *Planner) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.accounts.Logout(ctx); err != nil {
		return err
	}
	p.tasks.Reset()
	return nil
}

// Tasks returns the in-memory collection without consulting storage.
func (p *Planner) Tasks() []task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.Tasks()
}

func (p *Planner) LoadTasks(ctx context.Context) ([]task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.Load(ctx)
}

func (p *Planner) AddTask(ctx context.Context, f task.Fields) (task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.Add(ctx, f)
}

func (p *Planner) DeleteTask(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.Delete(ctx, id)
}

func (p *Planner) ToggleComplete(ctx context.Context, id string) (task.Task, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.ToggleComplete(ctx, id)
}

func (p *Planner) AddComment(ctx context.Context, id, text string) (task.Task, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.AddComment(ctx, id, text)
}

func (p *Planner) Filter(ctx context.Context, f task.Filter) ([]task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.Filter(ctx, f)
}

func (p *Planner) SortByPriority(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.SortByPriority(ctx)
}

// Theme returns the device-wide theme; light unless dark was chosen.
func (p *Planner) Theme(ctx context.Context) (Theme, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme(ctx)
}

func (p *Planner) SetTheme(ctx context.Context, t Theme) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setTheme(ctx, t)
}

func (p *Planner) ToggleTheme(ctx context.Context) (Theme, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, err := p.theme(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	if err := p.setTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

func (p *Planner) theme(ctx context.Context) (Theme, error) {
	v, err := p.kv.Get(ctx, storage.ThemeKey)
	if err != nil {
		return "", fmt.Errorf("planner: read theme: %w", err)
	}
	if Theme(strings.TrimSpace(string(v))) == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

func (p *Planner) setTheme(ctx context.Context, t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return fmt.Errorf("planner: unknown theme %q", t)
	}
	if err := p.kv.Set(ctx, storage.ThemeKey, []byte(t)); err != nil {
		return fmt.Errorf("planner: save theme: %w", err)
	}
	return nil
}
