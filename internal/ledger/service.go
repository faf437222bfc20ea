// Package ledger implements the commands that keep a user's balance, total
// savings and envelope aggregates consistent.
//
// Every command runs in one database transaction that first locks the
// user's account row, so commands for the same user are serialized and
// their writes commit or roll back together.
package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/logger"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
	"gitlab.com/yelinaung/finance-ledger/internal/repository"
)

const instrumentationName = "gitlab.com/yelinaung/finance-ledger/internal/ledger"

// Service runs ledger commands against PostgreSQL.
type Service struct {
	db     database.DB
	now    func() time.Time
	tracer trace.Tracer

	commands      metric.Int64Counter
	notifications metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now. Used by tests and by tools that replay a
// fixed point in time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTracerProvider sets the provider spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// New creates a Service. Instruments come from the global OpenTelemetry
// providers unless overridden.
func New(db database.DB, opts ...Option) *Service {
	s := &Service{
		db:     db,
		now:    time.Now,
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.commands, err = meter.Int64Counter("ledger.commands",
		metric.WithDescription("Ledger commands executed, by command and outcome"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create ledger.commands counter")
	}
	s.notifications, err = meter.Int64Counter("ledger.notifications",
		metric.WithDescription("Notifications appended to user accounts"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create ledger.notifications counter")
	}
	return s
}

// command is the state shared by the steps of one locked command.
type command struct {
	ctx     context.Context
	db      database.PGXDB
	now     time.Time
	account *models.Account

	users        *repository.UserRepository
	categories   *repository.CategoryRepository
	budgets      *repository.BudgetRepository
	savings      *repository.SavingRepository
	transactions *repository.TransactionRepository
}

func newCommand(ctx context.Context, db database.PGXDB, now time.Time) *command {
	return &command{
		ctx:          ctx,
		db:           db,
		now:          now,
		users:        repository.NewUserRepository(db),
		categories:   repository.NewCategoryRepository(db),
		budgets:      repository.NewBudgetRepository(db),
		savings:      repository.NewSavingRepository(db),
		transactions: repository.NewTransactionRepository(db),
	}
}

// notify appends a notification to the locked account.
func (c *command) notify(message string) {
	c.account.AddNotification(message, c.now)
}

// withUser runs fn in a transaction holding the user's account lock and
// stores the account afterwards if fn changed it.
func (s *Service) withUser(ctx context.Context, name string, userID int64, fn func(c *command) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "ledger."+name,
		trace.WithAttributes(attribute.String("ledger.user", logger.HashUserID(userID))))
	defer func() {
		s.finish(ctx, span, name, err)
	}()

	return database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		c := newCommand(ctx, tx, s.now())

		account, err := c.users.LockAccount(ctx, userID)
		if err != nil {
			return err
		}
		c.account = account
		balance, savings := account.CurrentBalance, account.TotalSavings

		if err := fn(c); err != nil {
			return err
		}

		pending := len(account.PendingNotifications())
		if pending == 0 && balance.Equal(account.CurrentBalance) && savings.Equal(account.TotalSavings) {
			return nil
		}
		if err := c.users.SaveAccount(ctx, account); err != nil {
			return err
		}
		if pending > 0 && s.notifications != nil {
			s.notifications.Add(ctx, int64(pending))
		}
		return nil
	})
}

// withTx runs fn in a transaction without a user lock.
func (s *Service) withTx(ctx context.Context, name string, fn func(c *command) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "ledger."+name)
	defer func() {
		s.finish(ctx, span, name, err)
	}()

	return database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(newCommand(ctx, tx, s.now()))
	})
}

func (s *Service) finish(ctx context.Context, span trace.Span, name string, err error) {
	defer span.End()

	outcome := "ok"
	if err != nil {
		kind := models.KindOf(err)
		outcome = kind.String()
		span.RecordError(err)
		if kind == models.KindInternal {
			span.SetStatus(codes.Error, err.Error())
			logger.Log.Error().Err(err).Str("command", name).Msg("Ledger command failed")
		} else {
			logger.Log.Debug().Err(err).Str("command", name).Msg("Ledger command rejected")
		}
	}
	if s.commands != nil {
		s.commands.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command", name),
			attribute.String("outcome", outcome),
		))
	}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items []T
	Page  int
	Pages int
	Total int
}

func newPage[T any](items []T, page, total int) Page[T] {
	if page < 1 {
		page = 1
	}
	pages := (total + models.PageSize - 1) / models.PageSize
	return Page[T]{Items: items, Page: page, Pages: pages, Total: total}
}
