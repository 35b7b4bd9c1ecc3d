// Package testutil holds shared fixtures: in-memory sqlite stores, sqlmock
// databases and gin test contexts.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/schema"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewSQLiteDB opens a private in-memory database with every table migrated.
// The pool holds a single connection: code under test must use the
// transaction-bound store inside transactions.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "migrate sqlite")
	return db
}

// NewRegistry returns the resolved entity registry
func NewRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r, err := models.NewRegistry()
	require.NoError(t, err)
	return r
}

// NewStore returns a store over a fresh sqlite database, logging to the test
func NewStore(t *testing.T, opts ...persistence.StoreOption) *persistence.Store {
	t.Helper()
	opts = append([]persistence.StoreOption{persistence.WithLogger(zaptest.NewLogger(t))}, opts...)
	s, err := persistence.NewStore(NewSQLiteDB(t), NewRegistry(t), opts...)
	require.NoError(t, err)
	return s
}

// MockDB is a postgres-dialect gorm handle over sqlmock
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "create sqlmock")

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "open gorm over sqlmock")
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &MockDB{DB: db, Mock: mock, SqlDB: sqlDB}
}

func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "unmet database expectations")
}

// TestContext wraps a gin test context and its recorder
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

func NewTestContext(t *testing.T) *TestContext {
	t.Helper()
	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

func (tc *TestContext) SetRequestID(id string) { tc.Context.Set("request_id", id) }
func (tc *TestContext) SetUserID(id uint)      { tc.Context.Set("jwt_user_id", id) }
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}
func (tc *TestContext) ResponseBody() []byte { return tc.Recorder.Body.Bytes() }
func (tc *TestContext) ResponseCode() int    { return tc.Recorder.Code }

// ContextWithTimeout is a context cancelled at test end or after timeout
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
