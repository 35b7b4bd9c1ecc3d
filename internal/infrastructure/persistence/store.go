package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store bundles one gateway per entity over a shared handle. A Store obtained
// inside Transaction is bound to the transaction; every gateway on it, and
// every handle it hands out, runs on that transaction.
type Store struct {
	db        *gorm.DB
	registry  *schema.Registry
	txTimeout time.Duration

	Users             *gateway.Gateway[models.User, *models.User]
	UserTypes         *gateway.Gateway[models.UserType, *models.UserType]
	UserInvites       *gateway.Gateway[models.UserInvite, *models.UserInvite]
	EmailChecks       *gateway.Gateway[models.EmailCheck, *models.EmailCheck]
	Organizations     *gateway.Gateway[models.Organization, *models.Organization]
	Groups            *gateway.Gateway[models.Group, *models.Group]
	GroupPermissions  *gateway.Gateway[models.GroupPermission, *models.GroupPermission]
	UserOrganizations *gateway.Gateway[models.UserOrganization, *models.UserOrganization]
	Products          *gateway.Gateway[models.Product, *models.Product]
	Images            *gateway.Gateway[models.Image, *models.Image]
}

type storeOptions struct {
	gateway   gateway.Config
	txTimeout time.Duration
}

type StoreOption func(*storeOptions)

func WithLogger(l *zap.Logger) StoreOption {
	return func(o *storeOptions) { o.gateway.Logger = l }
}

func WithObserver(obs gateway.Observer) StoreOption {
	return func(o *storeOptions) { o.gateway.Observer = obs }
}

// WithClock overrides the soft-delete timestamp source
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) { o.gateway.Now = now }
}

// WithTransactionTimeout bounds every transaction opened by Store.Transaction
func WithTransactionTimeout(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.txTimeout = d }
}

// NewStore builds every gateway. The registry must be resolved.
func NewStore(db *gorm.DB, registry *schema.Registry, opts ...StoreOption) (*Store, error) {
	o := storeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Store{db: db, registry: registry, txTimeout: o.txTimeout}

	cfg := o.gateway
	err := errors.Join(
		newGateway(&s.Users, db, registry, models.EntityUser, cfg),
		newGateway(&s.UserTypes, db, registry, models.EntityUserType, cfg),
		newGateway(&s.UserInvites, db, registry, models.EntityUserInvite, cfg),
		newGateway(&s.EmailChecks, db, registry, models.EntityEmailCheck, cfg),
		newGateway(&s.Organizations, db, registry, models.EntityOrganization, cfg),
		newGateway(&s.Groups, db, registry, models.EntityGroup, cfg),
		newGateway(&s.GroupPermissions, db, registry, models.EntityGroupPermission, cfg),
		newGateway(&s.UserOrganizations, db, registry, models.EntityUserOrganization, cfg),
		newGateway(&s.Products, db, registry, models.EntityProduct, cfg),
		newGateway(&s.Images, db, registry, models.EntityImage, cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}
	return s, nil
}

func newGateway[T any, PT gateway.Record[T]](dst **gateway.Gateway[T, PT], db *gorm.DB, registry *schema.Registry, entity string, cfg gateway.Config) error {
	g, err := gateway.New[T, PT](db, registry, entity, cfg)
	if err != nil {
		return err
	}
	*dst = g
	return nil
}

// DB returns the bound handle
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Registry() *schema.Registry { return s.registry }

// InTransaction reports whether the store is bound to a transaction
func (s *Store) InTransaction() bool {
	_, ok := s.db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}

func (s *Store) bind(tx *gorm.DB) *Store {
	return &Store{
		db:                tx,
		registry:          s.registry,
		txTimeout:         s.txTimeout,
		Users:             s.Users.WithTx(tx),
		UserTypes:         s.UserTypes.WithTx(tx),
		UserInvites:       s.UserInvites.WithTx(tx),
		EmailChecks:       s.EmailChecks.WithTx(tx),
		Organizations:     s.Organizations.WithTx(tx),
		Groups:            s.Groups.WithTx(tx),
		GroupPermissions:  s.GroupPermissions.WithTx(tx),
		UserOrganizations: s.UserOrganizations.WithTx(tx),
		Products:          s.Products.WithTx(tx),
		Images:            s.Images.WithTx(tx),
	}
}

// Transaction runs fn on a store bound to one transaction. A store that is
// already bound reuses its transaction, so nested calls share one handle.
// Errors returned by fn come back unchanged after rollback; failures to
// begin or commit are reported as store errors.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s.InTransaction() {
		return fn(s)
	}
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(s.bind(tx))
		return fnErr
	})
	switch {
	case err == nil:
		return nil
	case fnErr != nil:
		return fnErr
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewStoreError(err)
}

// Handle returns the untyped gateway of an entity, bound like the store
func (s *Store) Handle(entity string) (gateway.Handle, error) {
	var h gateway.Handle
	switch entity {
	case models.EntityUser:
		h = s.Users.Handle()
	case models.EntityUserType:
		h = s.UserTypes.Handle()
	case models.EntityUserInvite:
		h = s.UserInvites.Handle()
	case models.EntityEmailCheck:
		h = s.EmailChecks.Handle()
	case models.EntityOrganization:
		h = s.Organizations.Handle()
	case models.EntityGroup:
		h = s.Groups.Handle()
	case models.EntityGroupPermission:
		h = s.GroupPermissions.Handle()
	case models.EntityUserOrganization:
		h = s.UserOrganizations.Handle()
	case models.EntityProduct:
		h = s.Products.Handle()
	case models.EntityImage:
		h = s.Images.Handle()
	default:
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownEntity, entity)
	}
	return h, nil
}

// Through returns the gateway at the far end of entity's association alias
func (s *Store) Through(entity, alias string) (gateway.Handle, error) {
	a, err := s.registry.Association(entity, alias)
	if err != nil {
		return nil, err
	}
	return s.Handle(a.Target)
}
