package application

import (
	"context"
	"sync"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"go.uber.org/zap"
)

type TokenResolver interface {
	ResolveToken(ctx context.Context) domain.SessionToken
}

// ViewStateController owns the newsletter view state. Each Mount runs one
// resolve-then-fetch cycle; Teardown cancels whatever is still in flight.
type ViewStateController struct {
	resolver TokenResolver
	fetcher  ports.DigestFetcher
	baseURL  string
	logger   *zap.Logger

	mu          sync.Mutex
	state       domain.ViewState
	tasks       map[uint64]*FetchTask
	nextTaskID  uint64
	subscribers map[uint64]func(domain.ViewState)
	nextSubID   uint64
}

// FetchTask is one in-flight mount cycle.
type FetchTask struct {
	id      uint64
	cancel  context.CancelFunc
	done    chan struct{}
	applied bool
}

func (t *FetchTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and reports whether its result reached the view state.
func (t *FetchTask) Wait() bool {
	<-t.done
	return t.applied
}

func (t *FetchTask) Cancel() {
	t.cancel()
}

func NewViewStateController(resolver TokenResolver, fetcher ports.DigestFetcher, baseURL string, logger *zap.Logger) *ViewStateController {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ViewStateController{
		resolver:    resolver,
		fetcher:     fetcher,
		baseURL:     baseURL,
		logger:      logger,
		state:       domain.ViewState{Mails: []domain.NewsletterDigest{}, Loading: true},
		tasks:       make(map[uint64]*FetchTask),
		subscribers: make(map[uint64]func(domain.ViewState)),
	}
}

func (c *ViewStateController) State() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return snapshot(c.state)
}

// Subscribe registers fn for every state change and returns its unsubscribe func.
func (c *ViewStateController) Subscribe(fn func(domain.ViewState)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *ViewStateController) Mount(ctx context.Context) *FetchTask {
	taskCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	task := &FetchTask{id: c.nextTaskID, cancel: cancel, done: make(chan struct{})}
	c.nextTaskID++
	c.tasks[task.id] = task
	c.state.Loading = true
	state, subscribers := snapshot(c.state), c.subscriberList()
	c.mu.Unlock()

	notify(subscribers, state)

	go c.run(taskCtx, task)

	return task
}

// Teardown cancels every in-flight task. Their results are discarded.
func (c *ViewStateController) Teardown() {
	c.mu.Lock()
	tasks := c.tasks
	c.tasks = make(map[uint64]*FetchTask)
	c.mu.Unlock()

	for _, task := range tasks {
		task.cancel()
	}
}

func (c *ViewStateController) run(ctx context.Context, task *FetchTask) {
	defer close(task.done)
	defer task.cancel()

	token := c.resolver.ResolveToken(ctx)
	mails := c.fetcher.FetchDigests(ctx, c.baseURL, token)

	c.complete(ctx, task, mails)
}

func (c *ViewStateController) complete(ctx context.Context, task *FetchTask, mails []domain.NewsletterDigest) {
	c.mu.Lock()
	if _, live := c.tasks[task.id]; !live || ctx.Err() != nil {
		delete(c.tasks, task.id)
		c.mu.Unlock()
		c.logger.Debug("discarding result of cancelled fetch", zap.Uint64("task", task.id))
		return
	}
	delete(c.tasks, task.id)

	if mails == nil {
		mails = []domain.NewsletterDigest{}
	}
	c.state = domain.ViewState{Mails: mails, Loading: false}
	task.applied = true
	state, subscribers := snapshot(c.state), c.subscriberList()
	c.mu.Unlock()

	notify(subscribers, state)
}

func (c *ViewStateController) subscriberList() []func(domain.ViewState) {
	subscribers := make([]func(domain.ViewState), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	return subscribers
}

func notify(subscribers []func(domain.ViewState), state domain.ViewState) {
	for _, fn := range subscribers {
		fn(state)
	}
}

func snapshot(state domain.ViewState) domain.ViewState {
	mails := make([]domain.NewsletterDigest, len(state.Mails))
	copy(mails, state.Mails)
	return domain.ViewState{Mails: mails, Loading: state.Loading}
}
