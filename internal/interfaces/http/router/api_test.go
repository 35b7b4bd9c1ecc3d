package router_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecommerce/backend/internal/application/catalog"
	"github.com/ecommerce/backend/internal/application/identity"
	"github.com/ecommerce/backend/internal/application/organization"
	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/auth"
	"github.com/ecommerce/backend/internal/infrastructure/cache"
	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/ecommerce/backend/internal/infrastructure/notification"
	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/storage"
	"github.com/ecommerce/backend/internal/infrastructure/telemetry"
	"github.com/ecommerce/backend/internal/interfaces/http/handler"
	"github.com/ecommerce/backend/internal/interfaces/http/router"
	"github.com/ecommerce/backend/tests/testutil"
	"github.com/gin-gonic/gin"
)

const password = "Abc123!@"

type api struct {
	engine  *gin.Engine
	store   *persistence.Store
	objects *storage.StubObjectStorage
	reg     *telemetry.Registry
}

func newAPI(t *testing.T, tune ...func(*config.Config)) *api {
	t.Helper()
	log := zaptest.NewLogger(t)

	db := testutil.NewSQLiteDB(t)
	store, err := persistence.NewStore(db, testutil.NewRegistry(t), persistence.WithLogger(log))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Name: "shop-api", Env: "test", Version: "test"},
		JWT: config.JWTConfig{Secret: "a-test-secret-that-is-long-enough-to-sign", Expiration: time.Hour, Issuer: "shop-test"},
		HTTP: config.HTTPConfig{
			RequestTimeout:    5 * time.Second,
			MaxBodyBytes:      1 << 20,
			AuthRatePerSecond: 100,
			AuthRateBurst:     100,
			IdempotencyTTL:    time.Minute,
		},
	}
	for _, f := range tune {
		f(cfg)
	}

	jwtSvc, err := auth.NewJWTService(cfg.JWT)
	require.NoError(t, err)
	policy := identity.PasswordPolicy{MinLength: 6, RequireDigit: true, RequireLower: true, RequireUpper: true, RequireSymbol: true}
	users := identity.NewUserService(policy, bcrypt.MinCost, log)
	notifier := notification.NewLogNotifier(log)
	objects := storage.NewStubObjectStorage("")

	blacklist := auth.NewInMemoryTokenBlacklist()
	idem := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = idem.Close() })
	reg := telemetry.NewRegistry()
	metrics, err := telemetry.NewHTTPMetrics(reg.Registerer())
	require.NoError(t, err)

	engine, err := router.New(router.Deps{
		Config:         cfg,
		Logger:         log,
		JWT:            jwtSvc,
		Blacklist:      blacklist,
		Idempotency:    idem,
		Metrics:        metrics,
		MetricsHandler: reg.Handler(),
		Users:          handler.NewUserHandler(identity.NewAuthService(store, users, jwtSvc, blacklist, notifier, log)),
		Products: handler.NewProductHandler(
			catalog.NewProductService(store, log),
			catalog.NewImageService(store, objects, log)),
		Organizations: handler.NewOrganizationHandler(organization.NewService(store, users, notifier, config.WorkflowConfig{}, log)),
		System:        handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, sqlDB),
	})
	require.NoError(t, err)
	return &api{engine: engine, store: store, objects: objects, reg: reg}
}

func (a *api) signupAndLogin(t *testing.T, email string) string {
	t.Helper()
	w := testutil.Do(t, a.engine, http.MethodPost, "/user/signup", map[string]any{
		"first_name": "Ada", "last_name": "Lovelace", "email": email,
		"password": password, "confirm_password": password,
	})
	testutil.AssertSuccess(t, w, http.StatusCreated)
	return a.login(t, email, password)
}

func (a *api) login(t *testing.T, email, pw string) string {
	t.Helper()
	w := testutil.Do(t, a.engine, http.MethodPost, "/user/login", map[string]any{"email": email, "password": pw})
	testutil.AssertSuccess(t, w, http.StatusOK)
	res := testutil.DecodeData[identity.LoginResult](t, w)
	require.NotNil(t, res.Token)
	return res.Token.AccessToken
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	w := testutil.Do(t, a.engine, http.MethodGet, "/health", nil)
	resp := testutil.AssertSuccess(t, w, http.StatusOK)
	data := resp["data"].(map[string]any)
	assert.Equal(t, "ok", data["database"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = testutil.Do(t, a.engine, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	a := newAPI(t)
	w := testutil.Do(t, a.engine, http.MethodGet, "/nope", nil)
	testutil.AssertError(t, w, http.StatusNotFound, "NOT_FOUND")
}

func TestUserRoutes(t *testing.T) {
	a := newAPI(t)

	t.Run("signup validation uses real statuses", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodPost, "/user/signup", map[string]any{"email": "not-an-email"})
		errObj := testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
		assert.NotEmpty(t, errObj["details"])
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodPost, "/user/signup", map[string]any{
			"first_name": "A", "last_name": "B", "email": "m@x.com",
			"password": password, "confirm_password": "different",
		})
		errObj := testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
		assert.Equal(t, "confirm_password", errObj["field"])
	})

	t.Run("malformed body", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodPost, "/user/login", "{not json")
		testutil.AssertError(t, w, http.StatusBadRequest, "BAD_REQUEST")
	})

	token := a.signupAndLogin(t, "ada@example.com")

	t.Run("duplicate email", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodPost, "/user/signup", map[string]any{
			"first_name": "A", "last_name": "B", "email": "ADA@example.com",
			"password": password, "confirm_password": password,
		})
		testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("bad credentials are 401", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodPost, "/user/login", map[string]any{"email": "ada@example.com", "password": "Wrong1!x"})
		errObj := testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
		assert.Equal(t, identity.MsgBadCredentials, errObj["message"])

		w = testutil.Do(t, a.engine, http.MethodPost, "/user/login", map[string]any{"email": "nobody@example.com", "password": password})
		errObj = testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
		assert.Equal(t, identity.MsgBadCredentials, errObj["message"])
	})

	t.Run("me", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodGet, "/user/me", nil, testutil.Bearer(token)...)
		resp := testutil.AssertSuccess(t, w, http.StatusOK)
		data := resp["data"].(map[string]any)
		assert.Equal(t, "ada@example.com", data["email"])
		assert.NotContains(t, data, "password")

		w = testutil.Do(t, a.engine, http.MethodGet, "/user/me", nil)
		testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodPost, "/user/logout", nil, testutil.Bearer(token)...)
		testutil.AssertSuccess(t, w, http.StatusOK)

		w = testutil.Do(t, a.engine, http.MethodGet, "/user/me", nil, testutil.Bearer(token)...)
		errObj := testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
		assert.Equal(t, "Token has been revoked", errObj["message"])
	})
}

func TestProductRoutes(t *testing.T) {
	a := newAPI(t)
	token := a.signupAndLogin(t, "seller@example.com")

	w := testutil.Do(t, a.engine, http.MethodPost, "/product/create", map[string]any{
		"title": "Lamp", "description": "Warm light", "price": "19.90", "stock": 3,
	})
	testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")

	w = testutil.Do(t, a.engine, http.MethodPost, "/product/create", map[string]any{
		"title": "Lamp", "description": "Warm light", "price": "19.90", "stock": 3,
	}, testutil.Bearer(token)...)
	resp := testutil.AssertSuccess(t, w, http.StatusCreated)
	product := resp["data"].(map[string]any)
	id := uint(product["id"].(float64))
	assert.Equal(t, "19.9", product["price"])
	assert.NotNil(t, product["user_id"])

	w = testutil.Do(t, a.engine, http.MethodPost, "/product/create", map[string]any{"description": "x"}, testutil.Bearer(token)...)
	testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")

	t.Run("get", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodGet, fmt.Sprintf("/product/%d", id), nil)
		testutil.AssertSuccess(t, w, http.StatusOK)

		w = testutil.Do(t, a.engine, http.MethodGet, "/product/999", nil)
		testutil.AssertError(t, w, http.StatusNotFound, "NOT_FOUND")

		w = testutil.Do(t, a.engine, http.MethodGet, "/product/abc", nil)
		testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("list", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodGet, "/product?page=1&page_size=10", nil)
		resp := testutil.AssertSuccess(t, w, http.StatusOK)
		meta := resp["meta"].(map[string]any)
		assert.Equal(t, float64(1), meta["total"])
		assert.Len(t, resp["data"], 1)

		w = testutil.Do(t, a.engine, http.MethodGet, "/product?page_size=1000", nil)
		testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")

		w = testutil.Do(t, a.engine, http.MethodGet, "/product?sort=price&order=asc", nil)
		testutil.AssertSuccess(t, w, http.StatusOK)

		w = testutil.Do(t, a.engine, http.MethodGet, "/product?order=sideways", nil)
		testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("idempotent create", func(t *testing.T) {
		body := map[string]any{"title": "Shade", "description": "Lamp shade", "price": "5", "stock": 1}
		headers := append(testutil.Bearer(token), "Idempotency-Key", "create-shade-1")

		w := testutil.Do(t, a.engine, http.MethodPost, "/product/create", body, headers...)
		testutil.AssertSuccess(t, w, http.StatusCreated)

		w = testutil.Do(t, a.engine, http.MethodPost, "/product/create", body, headers...)
		testutil.AssertError(t, w, http.StatusConflict, "DUPLICATE_REQUEST")

		count, err := a.store.Products.Count(context.Background(), gateway.Where(shared.Values{"title": "Shade"}))
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("images", func(t *testing.T) {
		path := fmt.Sprintf("/product/%d/images", id)
		w := testutil.Do(t, a.engine, http.MethodPost, path, map[string]any{
			"file_name": "front.PNG", "content_type": "image/png", "title": "Front",
		}, testutil.Bearer(token)...)
		resp := testutil.AssertSuccess(t, w, http.StatusCreated)
		upload := resp["data"].(map[string]any)["upload"].(map[string]any)
		assert.Equal(t, http.MethodPut, upload["method"])
		assert.True(t, strings.HasPrefix(upload["url"].(string), "http://localhost:9000/product-images/products/"))

		w = testutil.Do(t, a.engine, http.MethodPost, path, map[string]any{
			"file_name": "notes.txt", "content_type": "text/plain",
		}, testutil.Bearer(token)...)
		testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")

		w = testutil.Do(t, a.engine, http.MethodGet, path, nil)
		resp = testutil.AssertSuccess(t, w, http.StatusOK)
		views := resp["data"].([]any)
		require.Len(t, views, 1)
		image := views[0].(map[string]any)["image"].(map[string]any)
		imageID := uint(image["id"].(float64))

		w = testutil.Do(t, a.engine, http.MethodDelete, fmt.Sprintf("%s/%d", path, imageID), nil, testutil.Bearer(token)...)
		testutil.AssertSuccess(t, w, http.StatusOK)
		assert.Len(t, a.objects.Deleted(), 1)

		w = testutil.Do(t, a.engine, http.MethodDelete, fmt.Sprintf("%s/%d", path, imageID), nil, testutil.Bearer(token)...)
		testutil.AssertError(t, w, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("images belong to the product owner", func(t *testing.T) {
		path := fmt.Sprintf("/product/%d/images", id)
		w := testutil.Do(t, a.engine, http.MethodPost, path, map[string]any{
			"file_name": "side.png", "content_type": "image/png",
		}, testutil.Bearer(token)...)
		resp := testutil.AssertSuccess(t, w, http.StatusCreated)
		image := resp["data"].(map[string]any)["image"].(map[string]any)
		imageID := uint(image["id"].(float64))
		deleted := len(a.objects.Deleted())

		other := a.signupAndLogin(t, "rival@example.com")

		w = testutil.Do(t, a.engine, http.MethodPost, path, map[string]any{
			"file_name": "spam.png", "content_type": "image/png",
		}, testutil.Bearer(other)...)
		testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")

		w = testutil.Do(t, a.engine, http.MethodDelete, fmt.Sprintf("%s/%d", path, imageID), nil, testutil.Bearer(other)...)
		testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
		assert.Len(t, a.objects.Deleted(), deleted)

		count, err := a.store.Images.Count(context.Background(), gateway.Where(shared.Values{"product_id": id}))
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func TestOrganizationRoutes(t *testing.T) {
	a := newAPI(t)
	ctx := context.Background()

	w := testutil.Do(t, a.engine, http.MethodPost, "/organization", map[string]any{
		"workspace": "Acme Café", "company": "Acme", "email": "boss@acme.com",
		"first_name": "Bo", "last_name": "Ss", "password": password,
	})
	resp := testutil.AssertSuccess(t, w, http.StatusCreated)
	org := resp["data"].(map[string]any)
	orgID := uint(org["id"].(float64))
	assert.Equal(t, "acme-cafe", org["workspace"])

	adminToken := a.login(t, "boss@acme.com", password)
	memberToken := a.signupAndLogin(t, "outsider@example.com")

	t.Run("invite requires an admin of the organization", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodPost, "/organization/invites",
			map[string]any{"organization_id": orgID, "email": "new@acme.com"}, testutil.Bearer(memberToken)...)
		testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	w = testutil.Do(t, a.engine, http.MethodPost, "/organization/invites",
		map[string]any{"organization_id": orgID, "email": "new@acme.com"}, testutil.Bearer(adminToken)...)
	resp = testutil.AssertSuccess(t, w, http.StatusCreated)
	assert.NotContains(t, resp["data"], "token")

	invite, err := a.store.UserInvites.FindOne(ctx, gateway.Where(shared.Values{"email": "new@acme.com"}))
	require.NoError(t, err)
	require.NotNil(t, invite)
	joinPath := "/organization/join/" + invite.Token

	t.Run("check and join", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodGet, joinPath, nil)
		testutil.AssertSuccess(t, w, http.StatusOK)

		body := map[string]any{"first_name": "New", "last_name": "Hire", "password": password, "confirm_password": password}
		w = testutil.Do(t, a.engine, http.MethodPost, joinPath, body)
		resp := testutil.AssertSuccess(t, w, http.StatusCreated)
		user := resp["data"].(map[string]any)
		assert.Equal(t, "new@acme.com", user["email"])
		assert.Equal(t, float64(orgID), user["organization_id"])

		w = testutil.Do(t, a.engine, http.MethodPost, joinPath, body)
		testutil.AssertError(t, w, http.StatusBadRequest, "INVALID_TOKEN")

		w = testutil.Do(t, a.engine, http.MethodGet, "/organization/join/unknown", nil)
		testutil.AssertError(t, w, http.StatusBadRequest, "INVALID_TOKEN")
	})

	t.Run("destroy", func(t *testing.T) {
		w := testutil.Do(t, a.engine, http.MethodDelete, fmt.Sprintf("/organization/%d", orgID), nil, testutil.Bearer(memberToken)...)
		testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")

		w = testutil.Do(t, a.engine, http.MethodDelete, fmt.Sprintf("/organization/%d", orgID), nil, testutil.Bearer(adminToken)...)
		testutil.AssertSuccess(t, w, http.StatusOK)

		exists, err := a.store.Organizations.Exists(ctx, gateway.Where(shared.Values{"id": orgID}), gateway.IncludeDeleted())
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestAuthRateLimit(t *testing.T) {
	a := newAPI(t, func(c *config.Config) {
		c.HTTP.AuthRatePerSecond = 0.001
		c.HTTP.AuthRateBurst = 1
	})
	body := map[string]any{"email": "x@example.com", "password": password}

	w := testutil.Do(t, a.engine, http.MethodPost, "/user/login", body)
	testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")

	w = testutil.Do(t, a.engine, http.MethodPost, "/user/login", body)
	testutil.AssertError(t, w, http.StatusTooManyRequests, "RATE_LIMITED")
}
