//go:generate mockgen -source ./storage.go -destination=./mocks/repositories.go -package=mock_storage
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

type PackageRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, pkg *repository.Package) error
	GetByID(ctx context.Context, id string) (*repository.PackageWithOwner, error)
	GetByIDForUpdateTx(ctx context.Context, tx db.Tx, id string) (*repository.Package, error)
	ListByStatus(ctx context.Context, status string) ([]*repository.PackageWithOwner, error)
	ListTerminal(ctx context.Context, limit int) ([]*repository.PackageWithOwner, error)
	UpdateStatusTx(ctx context.Context, tx db.Tx, id, from, to string, at time.Time) error
}

type DeliveryRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, d *repository.Delivery) error
	GetByIDForUpdateTx(ctx context.Context, tx db.Tx, id string) (*repository.Delivery, error)
	GetActiveByPackageTx(ctx context.Context, tx db.Tx, packageID string) (*repository.Delivery, error)
	ListActiveByDriver(ctx context.Context, driverID string) ([]*repository.DeliveryDetails, error)
	ExistsForDriver(ctx context.Context, packageID, driverID string) (bool, error)
	UpdateStatusTx(ctx context.Context, tx db.Tx, id, from, to string, deliveryTime *time.Time, at time.Time) error
}

type UserRepository interface {
	Create(ctx context.Context, user *repository.User) error
	GetByID(ctx context.Context, id string) (*repository.User, error)
	GetByUsername(ctx context.Context, username string) (*repository.User, error)
	SetAvailability(ctx context.Context, id string, available bool) (*repository.User, error)
	AddEarningsTx(ctx context.Context, tx db.Tx, id string, amount float64) error
}

type HistoryRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, entry *repository.HistoryEntry) error
	ListByPackage(ctx context.Context, packageID string) ([]*repository.HistoryEntry, error)
}

type OutboxTaskRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
	GetProcessableTasksTx(ctx context.Context, tx db.Tx, limit, maxAttempts int, staleBefore time.Time) ([]*repository.OutboxTask, error)
	UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	UpdateTaskStatus(ctx context.Context, database db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
}

// PackageCache holds packages that reached a terminal status.
type PackageCache interface {
	Get(id string) (*repository.PackageWithOwner, bool)
	Set(pkg *repository.PackageWithOwner)
}

type Repositories struct {
	Packages   PackageRepository
	Deliveries DeliveryRepository
	Users      UserRepository
	History    HistoryRepository
	Outbox     OutboxTaskRepository
}

type Storage struct {
	db           db.DB
	packageRepo  PackageRepository
	deliveryRepo DeliveryRepository
	userRepo     UserRepository
	historyRepo  HistoryRepository
	outboxRepo   OutboxTaskRepository
	cache        PackageCache
	validate     *validator.Validate
	logger       *zap.Logger
	topic        string
	timeNow      func() time.Time
}

// NewStorage wires the lifecycle operations. cache may be nil.
func NewStorage(database db.DB, repos Repositories, cache PackageCache, topic string, logger *zap.Logger) *Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("money", validMoney)
	return &Storage{
		db:           database,
		packageRepo:  repos.Packages,
		deliveryRepo: repos.Deliveries,
		userRepo:     repos.Users,
		historyRepo:  repos.History,
		outboxRepo:   repos.Outbox,
		cache:        cache,
		validate:     validate,
		logger:       logger,
		topic:        topic,
		timeNow:      time.Now,
	}
}

func (s *Storage) now() time.Time {
	return s.timeNow().UTC()
}

// inTx runs fn inside a transaction. The transaction is rolled back unless
// fn returns nil and the commit succeeds.
func (s *Storage) inTx(ctx context.Context, fn func(tx db.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *Storage) writeHistoryTx(ctx context.Context, tx db.Tx, entityType, entityID, status, actor string, at time.Time) error {
	err := s.historyRepo.CreateTx(ctx, tx, &repository.HistoryEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Status:     status,
		ChangedBy:  actor,
		ChangedAt:  at,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s history entry: %w", entityType, err)
	}
	return nil
}

func (s *Storage) enqueueEventTx(ctx context.Context, tx db.Tx, event repository.LifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	task := &repository.OutboxTask{
		Payload:   payload,
		Topic:     s.topic,
		EntityKey: event.PackageID,
	}
	if err := s.outboxRepo.CreateTx(ctx, tx, task); err != nil {
		return fmt.Errorf("failed to enqueue %s event: %w", event.Type, err)
	}
	return nil
}

// validID reports whether id can name a stored entity. Anything that is not
// a UUID cannot exist, so callers answer ErrNotFound without a query.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// maxMoney is the largest amount a NUMERIC(12,2) column holds.
const maxMoney = 9999999999.99

// validMoney accepts amounts that round-trip through NUMERIC(12,2)
// unchanged.
func validMoney(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	if math.IsNaN(v) || math.IsInf(v, 0) || v > maxMoney {
		return false
	}
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) <= 1e-9*math.Max(1, math.Abs(cents))
}

func (s *Storage) validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return field + " must not be negative"
	case "gt":
		return field + " must be positive"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "money":
		return fmt.Sprintf("%s must have at most two decimal places and not exceed %.2f", field, maxMoney)
	default:
		return field + " is invalid"
	}
}
