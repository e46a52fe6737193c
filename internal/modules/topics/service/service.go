package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	settingsDomain "github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/domain"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/domain"
	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Pacing holds the fixed pauses between provisioning steps.
type Pacing struct {
	BeforePost       time.Duration
	BeforePin        time.Duration
	BetweenTopics    time.Duration
	AfterFailure     time.Duration
	BetweenTemplates time.Duration
	BetweenGreetings time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{
		BeforePost:       time.Second,
		BeforePin:        time.Second,
		BetweenTopics:    3 * time.Second,
		AfterFailure:     5 * time.Second,
		BetweenTemplates: time.Second,
		BetweenGreetings: 500 * time.Millisecond,
	}
}

// DefaultCreatePolicy is the retry policy of topic creation.
func DefaultCreatePolicy() invoker.Policy {
	return invoker.Policy{MaxAttempts: 3, BaseDelay: 3 * time.Second}
}

// Journal receives every finished run.
type Journal interface {
	Append(ctx context.Context, outcome domain.Outcome) error
}

// Service provisions forum topics and onboards groups
type Service struct {
	client       platform.Client
	inv          *invoker.Invoker
	createPolicy invoker.Policy
	pacing       Pacing
	journal      Journal
	logger       *slog.Logger
	now          func() time.Time

	mu      sync.Mutex
	running map[int64]struct{}
	selfID  int64
}

type Option func(*Service)

func WithCreatePolicy(p invoker.Policy) Option {
	return func(s *Service) { s.createPolicy = p }
}

func WithPacing(p Pacing) Option {
	return func(s *Service) { s.pacing = p }
}

func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a topics service.
func New(client platform.Client, inv *invoker.Invoker, opts ...Option) *Service {
	s := &Service{
		client:       client,
		inv:          inv,
		createPolicy: DefaultCreatePolicy(),
		pacing:       DefaultPacing(),
		logger:       slog.Default(),
		now:          time.Now,
		running:      map[int64]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRequest builds a run request from a settings snapshot. Welcome texts are
// paired with themes by position.
func NewRequest(chatID int64, kind platform.ChatKind, replyTo int, settings *settingsDomain.Settings) domain.Request {
	return domain.Request{
		ChatID:   chatID,
		ChatKind: kind,
		ReplyTo:  replyTo,
		MainName: settings.MainName,
		Topics: lo.Map(settings.Themes, func(name string, i int) domain.Topic {
			return domain.Topic{Name: name, Welcome: settings.WelcomeFor(i)}
		}),
	}
}

// Running reports whether a run is in flight for chatID.
func (s *Service) Running(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[chatID]
	return ok
}

func (s *Service) acquire(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[chatID]; ok {
		return false
	}
	s.running[chatID] = struct{}{}
	return true
}

func (s *Service) release(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, chatID)
}

// Provision runs the whole workflow for one chat and blocks until it ends.
// Callers start it on its own goroutine. Precondition failures answer with a
// single message; every other path ends with an edited status message.
func (s *Service) Provision(ctx context.Context, req domain.Request) domain.Outcome {
	out := domain.Outcome{
		ChatID:    req.ChatID,
		State:     domain.StateStart,
		Total:     len(req.Topics),
		StartedAt: s.now(),
	}
	logger := s.logger.With("chat_id", req.ChatID)

	switch {
	case !req.ChatKind.IsGroup():
		s.reply(ctx, req, textNotGroup)
		return s.finish(ctx, out, sharedErrors.ErrNotGroup)
	case len(req.Topics) == 0:
		s.reply(ctx, req, textNoThemes)
		return s.finish(ctx, out, sharedErrors.ErrNoThemes)
	case !s.acquire(req.ChatID):
		s.reply(ctx, req, textRunInProgress)
		return s.finish(ctx, out, sharedErrors.ErrRunInProgress)
	}
	defer s.release(req.ChatID)

	statusID, err := invoker.Do(ctx, s.inv, s.inv.Policy(), "send_status", func(ctx context.Context) (int, error) {
		return s.client.SendMessage(ctx, req.ChatID, 0, req.ReplyTo, textCreating)
	})
	if err != nil {
		logger.Error("Failed to post status message", "error", err)
		return s.finish(ctx, out, err)
	}

	r := newRun(s, req, statusID, logger)
	go r.report(ctx)
	out = r.execute(ctx, out)
	r.close()

	var cause error
	if out.State == domain.StateAborted {
		cause = out.Err
	}
	return s.finish(ctx, out, cause)
}

// finish stamps the outcome and hands it to the journal.
func (s *Service) finish(ctx context.Context, out domain.Outcome, cause error) domain.Outcome {
	if cause != nil {
		out.State = domain.StateAborted
		out.Err = cause
		out.Reason = cause.Error()
	}
	out.FinishedAt = s.now()

	s.logger.Info("Provisioning run ended",
		"chat_id", out.ChatID, "state", out.State, "created", out.Created, "total", out.Total, "failures", len(out.Failures))

	if s.journal != nil {
		if err := s.journal.Append(ctx, out); err != nil {
			s.logger.Error("Failed to journal provisioning run", "chat_id", out.ChatID, "error", err)
		}
	}
	return out
}

// reply answers the command message outside of any run.
func (s *Service) reply(ctx context.Context, req domain.Request, text string) {
	if _, err := invoker.Do(ctx, s.inv, s.inv.Policy(), "send_message", func(ctx context.Context) (int, error) {
		return s.client.SendMessage(ctx, req.ChatID, 0, req.ReplyTo, text)
	}); err != nil {
		s.logger.Error("Failed to send reply", "chat_id", req.ChatID, "error", err)
	}
}

// run is the state of one provisioning run. Only the run goroutine touches its
// counters; the reporter goroutine only reads from events.
type run struct {
	svc      *Service
	req      domain.Request
	statusID int
	logger   *slog.Logger

	events  chan event
	drained chan struct{}
}

// event is a progress report: an edit of the status message or a standalone notice.
type event struct {
	status bool
	text   string
}

func newRun(s *Service, req domain.Request, statusID int, logger *slog.Logger) *run {
	return &run{
		svc:      s,
		req:      req,
		statusID: statusID,
		logger:   logger,
		events:   make(chan event, len(req.Topics)+4),
		drained:  make(chan struct{}),
	}
}

func (r *run) status(text string) { r.events <- event{status: true, text: text} }
func (r *run) notice(text string) { r.events <- event{text: text} }

// close stops accepting events and waits until the reporter delivered all of them.
func (r *run) close() {
	close(r.events)
	<-r.drained
}

// report delivers progress in order. Delivery failures are logged and never stop the run.
func (r *run) report(ctx context.Context) {
	defer close(r.drained)
	s := r.svc
	for ev := range r.events {
		var err error
		if ev.status {
			err = s.inv.Exec(ctx, s.inv.Policy(), "edit_status", func(ctx context.Context) error {
				return s.client.EditMessage(ctx, r.req.ChatID, r.statusID, ev.text)
			})
		} else {
			_, err = invoker.Do(ctx, s.inv, s.inv.Policy(), "send_notice", func(ctx context.Context) (int, error) {
				return s.client.SendMessage(ctx, r.req.ChatID, 0, 0, ev.text)
			})
		}
		if err != nil {
			r.logger.Warn("Failed to report progress", "status", ev.status, "error", err)
		}
	}
}

func (r *run) execute(ctx context.Context, out domain.Outcome) domain.Outcome {
	s := r.svc
	chatID := r.req.ChatID

	out.State = domain.StateVerifyForum
	info, err := invoker.Do(ctx, s.inv, s.inv.Policy(), "get_chat", func(ctx context.Context) (platform.ChatInfo, error) {
		return s.client.GetChat(ctx, chatID)
	})
	if err != nil {
		r.logger.Error("Failed to verify forum", "error", err)
		r.status(textRunFailed(err))
		out.State = domain.StateAborted
		out.Err = oops.With("chat_id", chatID).Wrapf(err, "verify forum")
		return out
	}
	if !info.IsForum {
		r.status(textNotForum)
		out.State = domain.StateAborted
		out.Err = sharedErrors.ErrNotForum
		return out
	}

	out.State = domain.StateRenameDefault
	err = s.inv.Exec(ctx, s.inv.Policy(), "rename_topic", func(ctx context.Context) error {
		return s.client.RenameTopic(ctx, chatID, platform.GeneralTopicID, r.req.MainName)
	})
	if err != nil {
		r.logger.Error("Failed to rename default topic", "name", r.req.MainName, "error", err)
		r.notice(textRenameFailed)
	} else {
		out.Renamed = true
		r.notice(textRenamed(r.req.MainName))
	}

	out.State = domain.StateCreating
	r.status(textProgress(0, out.Total))
	for _, topic := range r.req.Topics {
		if ctx.Err() != nil {
			out.State = domain.StateAborted
			out.Err = ctx.Err()
			r.status(textRunFailed(ctx.Err()))
			return out
		}

		if err := r.provisionTopic(ctx, topic); err != nil {
			r.logger.Error("Failed to provision topic", "topic", topic.Name, "error", err)
			out.Failures = append(out.Failures, domain.Failure{Topic: topic.Name, Error: err.Error()})
			r.notice(textTopicFailed(topic.Name, err))
			_ = s.inv.Pause(ctx, s.pacing.AfterFailure)
			continue
		}

		out.Created++
		r.status(textProgress(out.Created, out.Total))
		_ = s.inv.Pause(ctx, s.pacing.BetweenTopics)
	}

	out.State = domain.StateDone
	r.status(textFinished(out.Created, out.Total))
	return out
}

// provisionTopic creates the topic, posts its welcome text and pins it.
func (r *run) provisionTopic(ctx context.Context, topic domain.Topic) error {
	s := r.svc
	chatID := r.req.ChatID

	topicID, err := invoker.Do(ctx, s.inv, s.createPolicy, "create_topic", func(ctx context.Context) (int, error) {
		return s.client.CreateTopic(ctx, chatID, topic.Name)
	})
	if err != nil {
		return err
	}

	welcome := topic.Welcome
	if welcome == "" {
		welcome = settingsDomain.DefaultWelcome(topic.Name)
	}

	if err := s.inv.Pause(ctx, s.pacing.BeforePost); err != nil {
		return err
	}
	messageID, err := invoker.Do(ctx, s.inv, s.inv.Policy(), "send_welcome", func(ctx context.Context) (int, error) {
		return s.client.SendMessage(ctx, chatID, topicID, 0, welcome)
	})
	if err != nil {
		return err
	}

	if err := s.inv.Pause(ctx, s.pacing.BeforePin); err != nil {
		return err
	}
	return s.inv.Exec(ctx, s.inv.Policy(), "pin_welcome", func(ctx context.Context) error {
		return s.client.PinMessage(ctx, chatID, messageID, true)
	})
}
