package gateway_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/persistence"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/gateway"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
	"github.com/ecommerce/backend/tests/testutil"
)

func createUser(t *testing.T, s *persistence.Store, email string) *models.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), shared.Values{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"password":   "$2a$10$hash",
	})
	require.NoError(t, err)
	return u
}

func createOrg(t *testing.T, s *persistence.Store, workspace string) *models.Organization {
	t.Helper()
	o, err := s.Organizations.Create(context.Background(), shared.Values{
		"workspace": workspace,
		"company":   "Acme Inc",
	})
	require.NoError(t, err)
	return o
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *shared.ValidationErrors
	require.True(t, errors.As(err, &ve), "expected validation errors, got %v", err)
	out := map[string]string{}
	for _, e := range ve.Errors {
		out[e.Field] = e.Message
	}
	return out
}

func TestGateway_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults and assigns an id", func(t *testing.T) {
		s := testutil.NewStore(t)
		u := createUser(t, s, "ada@example.com")

		assert.NotZero(t, u.ID)
		assert.True(t, u.IsActive)
		assert.Equal(t, models.RoleMember, u.Role)
		assert.Nil(t, u.TransientMeta(), "meta is cleared after the call")

		got, err := s.Users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ada@example.com", got.Email)
	})

	t.Run("reads back every declared field", func(t *testing.T) {
		s := testutil.NewStore(t)
		owner := createUser(t, s, "ada@example.com")

		p, err := s.Products.Create(ctx, shared.Values{
			"title":       "Lamp",
			"description": "Desk lamp",
			"price":       "19.9012",
			"stock":       4,
			"user_id":     owner.ID,
		})
		require.NoError(t, err)

		got, err := s.Products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "Lamp", got.Title)
		assert.Equal(t, "Desk lamp", got.Description)
		assert.Equal(t, "19.9012", got.Price.String())
		assert.Equal(t, 4, got.Stock)
		require.NotNil(t, got.UserID)
		assert.Equal(t, owner.ID, *got.UserID)
		assert.False(t, got.CreatedAt.IsZero())
		assert.False(t, got.UpdatedAt.IsZero())
		assert.Nil(t, got.TransientMeta())
	})

	t.Run("collects every field failure", func(t *testing.T) {
		s := testutil.NewStore(t)
		_, err := s.Users.Create(ctx, shared.Values{
			"first_name": "",
			"email":      "not-an-email",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		fields := fieldErrors(t, err)
		assert.Equal(t, "user:first-name-error-required", fields["first_name"])
		assert.Equal(t, "user:last-name-error-required", fields["last_name"])
		assert.Equal(t, "user:email-error-invalid", fields["email"])
		assert.Equal(t, "user:password-error-required", fields["password"])
	})

	t.Run("rejects unknown and excluded keys", func(t *testing.T) {
		s := testutil.NewStore(t)
		_, err := s.Organizations.Create(ctx, shared.Values{
			"id":        7,
			"workspace": "acme",
			"company":   "Acme Inc",
			"nickname":  "x",
		})
		fields := fieldErrors(t, err)
		assert.Equal(t, "Organization:id-not-assignable", fields["id"])
		assert.Equal(t, "Organization:unknown-field", fields["nickname"])
	})

	t.Run("rejects values of the wrong type", func(t *testing.T) {
		s := testutil.NewStore(t)
		_, err := s.Organizations.Create(ctx, shared.Values{"workspace": 42, "company": "Acme Inc"})
		fields := fieldErrors(t, err)
		assert.Equal(t, "Organization:workspace-error-type", fields["workspace"])
	})

	t.Run("reports unique collisions on the field", func(t *testing.T) {
		s := testutil.NewStore(t)
		createUser(t, s, "ada@example.com")

		_, err := s.Users.Create(ctx, shared.Values{
			"first_name": "Other",
			"last_name":  "User",
			"email":      "ada@example.com",
			"password":   "$2a$10$hash",
		})
		fields := fieldErrors(t, err)
		assert.Equal(t, "user:email-error-unique", fields["email"])
	})

	t.Run("reports composite unique collisions on the first column", func(t *testing.T) {
		s := testutil.NewStore(t)
		org := createOrg(t, s, "acme")
		values := shared.Values{"name": "Admins", "organization_id": org.ID}

		_, err := s.Groups.Create(ctx, values)
		require.NoError(t, err)
		_, err = s.Groups.Create(ctx, values)
		fields := fieldErrors(t, err)
		assert.Equal(t, "groups:name-error-unique", fields["name"])
	})

	t.Run("requires mandatory associations", func(t *testing.T) {
		s := testutil.NewStore(t)
		_, err := s.Groups.Create(ctx, shared.Values{"name": "Admins"})
		fields := fieldErrors(t, err)
		assert.Equal(t, "groups:organization-error-required", fields["organization_id"])
	})

	t.Run("stamps the actor on audited entities", func(t *testing.T) {
		s := testutil.NewStore(t)
		u := createUser(t, s, "ada@example.com")
		org := createOrg(t, s, "acme")

		g, err := s.Groups.Create(ctx, shared.Values{"name": "Admins", "organization_id": org.ID}, gateway.As(u.ID))
		require.NoError(t, err)
		require.NotNil(t, g.CreatedBy)
		assert.Equal(t, u.ID, *g.CreatedBy)
	})
}

func TestGateway_Read(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	for _, ws := range []string{"bravo", "alpha", "charlie"} {
		createOrg(t, s, ws)
	}

	t.Run("find by id returns nil when absent", func(t *testing.T) {
		got, err := s.Organizations.FindByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("find all orders by id by default", func(t *testing.T) {
		all, err := s.Organizations.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "bravo", all[0].Workspace)
	})

	t.Run("find all honours order limit and offset", func(t *testing.T) {
		page, err := s.Organizations.FindAll(ctx, gateway.OrderBy("workspace asc"), gateway.Limit(2), gateway.Offset(1))
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "bravo", page[0].Workspace)
		assert.Equal(t, "charlie", page[1].Workspace)
	})

	t.Run("find one filters by equality", func(t *testing.T) {
		got, err := s.Organizations.FindOne(ctx, gateway.Where(shared.Values{"workspace": "charlie"}))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "charlie", got.Workspace)
	})

	t.Run("unknown filter keys are validation errors", func(t *testing.T) {
		_, err := s.Organizations.FindAll(ctx, gateway.Where(shared.Values{"colour": "red"}))
		assert.Equal(t, "Organization:unknown-field", fieldErrors(t, err)["colour"])
	})

	t.Run("count and exists", func(t *testing.T) {
		n, err := s.Organizations.Count(ctx, gateway.Limit(1))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		ok, err := s.Organizations.Exists(ctx, gateway.Where(shared.Values{"workspace": "delta"}))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGateway_SoftDelete(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := testutil.NewStore(t, persistence.WithClock(func() time.Time { return stamp }))
	kept := createOrg(t, s, "kept")
	gone := createOrg(t, s, "gone")

	snapshot, err := s.Organizations.SoftDeleteByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, snapshot.IsDeleted, "snapshot is taken before the update")

	t.Run("hidden from filtered reads", func(t *testing.T) {
		all, err := s.Organizations.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, kept.ID, all[0].ID)

		n, err := s.Organizations.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("visible by id and when requested", func(t *testing.T) {
		got, err := s.Organizations.FindByID(ctx, gone.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.IsDeleted)
		require.NotNil(t, got.DeletedAt)
		assert.True(t, stamp.Equal(got.DeletedAt.UTC()))

		all, err := s.Organizations.FindAll(ctx, gateway.IncludeDeleted())
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		_, err := s.Organizations.SoftDeleteByID(ctx, 9999)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("unsupported entity", func(t *testing.T) {
		u := createUser(t, s, "ada@example.com")
		_, err := s.Users.SoftDeleteByID(ctx, u.ID)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestGateway_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("update requires a filter", func(t *testing.T) {
		s := testutil.NewStore(t)
		_, err := s.Organizations.Update(ctx, shared.Values{"company": "Other Co"})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("update returns affected rows", func(t *testing.T) {
		s := testutil.NewStore(t)
		org := createOrg(t, s, "acme")
		createOrg(t, s, "other")

		n, err := s.Organizations.Update(ctx, shared.Values{"company": "Renamed"},
			gateway.Where(shared.Values{"workspace": "acme"}))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := s.Organizations.FindByID(ctx, org.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Company)
	})

	t.Run("update by id re-fetches", func(t *testing.T) {
		s := testutil.NewStore(t)
		org := createOrg(t, s, "acme")

		got, err := s.Organizations.UpdateByID(ctx, org.ID, shared.Values{"company": "Renamed"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Company)
		assert.Equal(t, "acme", got.Workspace)
	})

	t.Run("update by id validates only present keys", func(t *testing.T) {
		s := testutil.NewStore(t)
		org := createOrg(t, s, "acme")

		_, err := s.Organizations.UpdateByID(ctx, org.ID, shared.Values{"company": "X"})
		assert.Equal(t, "organization:company-error-length", fieldErrors(t, err)["company"])
	})

	t.Run("update by id keeps its own unique value", func(t *testing.T) {
		s := testutil.NewStore(t)
		org := createOrg(t, s, "acme")
		createOrg(t, s, "taken")

		_, err := s.Organizations.UpdateByID(ctx, org.ID, shared.Values{"workspace": "acme"})
		require.NoError(t, err)

		_, err = s.Organizations.UpdateByID(ctx, org.ID, shared.Values{"workspace": "taken"})
		assert.Equal(t, "organization:workspace-error-unique", fieldErrors(t, err)["workspace"])
	})

	t.Run("update by id on a missing row is not found", func(t *testing.T) {
		s := testutil.NewStore(t)
		_, err := s.Organizations.UpdateByID(ctx, 9999, shared.Values{"company": "Renamed"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGateway_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("creates then updates by name", func(t *testing.T) {
		s := testutil.NewStore(t)

		first, created, err := s.UserTypes.UpsertByName(ctx, "Buyer", nil)
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := s.UserTypes.UpsertByName(ctx, "Buyer", shared.Values{})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("upsert by zero id always creates", func(t *testing.T) {
		s := testutil.NewStore(t)
		a, created, err := s.UserTypes.UpsertByID(ctx, 0, shared.Values{"name": "Seller"})
		require.NoError(t, err)
		assert.True(t, created)

		b, created, err := s.UserTypes.UpsertByID(ctx, a.ID, shared.Values{"name": "Vendor"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "Vendor", b.Name)
	})

	t.Run("upsert by name is rejected without a name column", func(t *testing.T) {
		s := testutil.NewStore(t)
		_, _, err := s.Organizations.UpsertByName(ctx, "x", nil)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("find or create merges defaults only on create", func(t *testing.T) {
		s := testutil.NewStore(t)
		where := shared.Values{"workspace": "acme"}

		org, created, err := s.Organizations.FindOrCreate(ctx, where, shared.Values{"company": "Acme Inc"})
		require.NoError(t, err)
		assert.True(t, created)

		again, created, err := s.Organizations.FindOrCreate(ctx, where, shared.Values{"company": "Ignored"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, org.ID, again.ID)
		assert.Equal(t, "Acme Inc", again.Company)
	})
}

func TestGateway_Copy(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	owner := createUser(t, s, "ada@example.com")

	src, err := s.Products.Create(ctx, shared.Values{
		"title":       "Lamp",
		"description": "Desk lamp",
		"price":       "19.90",
		"stock":       4,
		"user_id":     owner.ID,
	})
	require.NoError(t, err)

	t.Run("copies the snapshot with overrides", func(t *testing.T) {
		cp, err := s.Products.CopyByID(ctx, src.ID, shared.Values{"title": "Lamp (copy)"}, nil)
		require.NoError(t, err)
		assert.NotEqual(t, src.ID, cp.ID)
		assert.Equal(t, "Lamp (copy)", cp.Title)
		assert.Equal(t, "Desk lamp", cp.Description)
		assert.True(t, src.Price.Equal(cp.Price))
		require.NotNil(t, cp.UserID)
		assert.Equal(t, owner.ID, *cp.UserID)
	})

	t.Run("copy gets a fresh created_at", func(t *testing.T) {
		past := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
		require.NoError(t, s.Products.DB().Model(&models.Product{}).
			Where("id = ?", src.ID).UpdateColumn("created_at", past).Error)

		cp, err := s.Products.CopyByID(ctx, src.ID, nil, nil)
		require.NoError(t, err)
		assert.True(t, cp.CreatedAt.After(past), "copy created_at %v", cp.CreatedAt)

		stored, err := s.Products.FindByID(ctx, cp.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.False(t, stored.CreatedAt.Equal(past))
		assert.True(t, src.Price.Equal(stored.Price))
		assert.Nil(t, stored.TransientMeta())
	})

	t.Run("exceptions drop columns", func(t *testing.T) {
		cp, err := s.Products.CopyByID(ctx, src.ID, nil, []string{"user_id", "stock"})
		require.NoError(t, err)
		assert.Nil(t, cp.UserID)
		assert.Zero(t, cp.Stock)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := s.Products.CopyByID(ctx, 0, nil, nil)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		_, err = s.Products.CopyByID(ctx, 9999, nil, nil)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("copy bulk keeps input order", func(t *testing.T) {
		res := s.Products.CopyBulk(ctx, []uint{src.ID, 9999, src.ID}, nil, nil)
		require.Len(t, res.Items, 3)
		assert.Equal(t, 2, res.Succeeded())
		assert.Equal(t, 1, res.Errors()[0].Index)
	})
}

func TestGateway_Bulk(t *testing.T) {
	ctx := context.Background()

	t.Run("create bulk isolates failures", func(t *testing.T) {
		s := testutil.NewStore(t)
		res := s.Organizations.CreateBulk(ctx, []shared.Values{
			{"workspace": "one", "company": "First Co"},
			{"workspace": "x", "company": "Bad Co"},
			{"workspace": "three", "company": "Third Co"},
		})
		require.Len(t, res.Items, 3)
		assert.Equal(t, 2, res.Succeeded())
		assert.Equal(t, 1, res.Failed())
		assert.Equal(t, 1, res.Errors()[0].Index)
		assert.Error(t, res.Err())

		recs := res.Records()
		require.Len(t, recs, 2)
		assert.Equal(t, "one", recs[0].Workspace)
		assert.Equal(t, "three", recs[1].Workspace)
	})

	t.Run("upsert bulk splits on id", func(t *testing.T) {
		s := testutil.NewStore(t)
		existing := createOrg(t, s, "acme")

		res := s.Organizations.UpsertBulk(ctx, []shared.Values{
			{"id": existing.ID, "company": "Renamed"},
			{"workspace": "fresh", "company": "Fresh Co"},
		})
		require.NoError(t, res.Err())
		assert.False(t, res.Items[0].Created)
		assert.Equal(t, "Renamed", res.Items[0].Record.Company)
		assert.True(t, res.Items[1].Created)
	})

	t.Run("cancelled context marks remaining items", func(t *testing.T) {
		s := testutil.NewStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res := s.Organizations.CreateBulk(cctx, []shared.Values{{"workspace": "one", "company": "First Co"}})
		require.Len(t, res.Items, 1)
		assert.ErrorIs(t, res.Items[0].Err, context.Canceled)
	})

	t.Run("destroy bulk", func(t *testing.T) {
		s := testutil.NewStore(t)
		a := createOrg(t, s, "alpha")
		b := createOrg(t, s, "bravo")

		res := s.Organizations.DestroyBulk(ctx, []uint{a.ID, 9999, b.ID})
		assert.Equal(t, 2, res.Succeeded())
		assert.True(t, errors.Is(res.Items[1].Err, shared.ErrNotFound))

		n, err := s.Organizations.Count(ctx, gateway.IncludeDeleted())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestGateway_Destroy(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the snapshot", func(t *testing.T) {
		s := testutil.NewStore(t)
		org := createOrg(t, s, "acme")

		snap, err := s.Organizations.DestroyByID(ctx, org.ID)
		require.NoError(t, err)
		assert.Equal(t, "acme", snap.Workspace)

		got, err := s.Organizations.FindByID(ctx, org.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		s := testutil.NewStore(t)
		_, err := s.Organizations.DestroyByID(ctx, 9999)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("cascades through dependents", func(t *testing.T) {
		s := testutil.NewStore(t)
		owner := createUser(t, s, "ada@example.com")
		p, err := s.Products.Create(ctx, shared.Values{
			"title": "Lamp", "description": "Desk lamp", "price": 10.5, "user_id": owner.ID,
		})
		require.NoError(t, err)
		img, err := s.Images.Create(ctx, shared.Values{"path": "products/1/lamp.png", "product_id": p.ID})
		require.NoError(t, err)

		_, err = s.Users.DestroyByID(ctx, owner.ID)
		require.NoError(t, err)

		gotP, err := s.Products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, gotP)
		gotI, err := s.Images.FindByID(ctx, img.ID)
		require.NoError(t, err)
		assert.Nil(t, gotI)
	})

	t.Run("set null detaches dependents", func(t *testing.T) {
		s := testutil.NewStore(t)
		org := createOrg(t, s, "acme")
		u := createUser(t, s, "ada@example.com")
		_, err := s.Users.UpdateByID(ctx, u.ID, shared.Values{"organization_id": org.ID})
		require.NoError(t, err)
		g, err := s.Groups.Create(ctx, shared.Values{"name": "Admins", "organization_id": org.ID})
		require.NoError(t, err)

		_, err = s.Organizations.DestroyByID(ctx, org.ID)
		require.NoError(t, err)

		got, err := s.Users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.OrganizationID)

		gotG, err := s.Groups.FindByID(ctx, g.ID)
		require.NoError(t, err)
		assert.Nil(t, gotG, "groups cascade with their organization")
	})
}

func TestGateway_WithTx(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	sentinel := errors.New("abort")

	err := s.DB().Transaction(func(tx *gorm.DB) error {
		orgs := s.Organizations.WithTx(tx)
		if _, err := orgs.Create(ctx, shared.Values{"workspace": "acme", "company": "Acme Inc"}); err != nil {
			return err
		}
		n, err := orgs.Count(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), n, "visible inside the transaction")
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	n, err := s.Organizations.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rolled back")
}

func TestGateway_Handle(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	org := createOrg(t, s, "acme")

	h := s.Organizations.Handle()
	assert.Equal(t, models.EntityOrganization, h.Entity())

	got, err := h.Get(ctx, org.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acme", h.Values(ctx, got)["workspace"])

	missing, err := h.Get(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing, "absent rows are an untyped nil")

	inserted, err := h.Insert(ctx, shared.Values{"workspace": "other", "company": "Other Co"})
	require.NoError(t, err)
	list, err := h.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = h.Destroy(ctx, inserted.GetID())
	require.NoError(t, err)
	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

type call struct {
	entity, operation string
	failed            bool
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) Observe(entity, operation string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{entity: entity, operation: operation, failed: err != nil})
}

func TestGateway_Observer(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := testutil.NewStore(t, persistence.WithObserver(rec))

	createOrg(t, s, "acme")
	_, err := s.Organizations.DestroyByID(ctx, 9999)
	require.Error(t, err)

	assert.Equal(t, []call{
		{entity: models.EntityOrganization, operation: "create"},
		{entity: models.EntityOrganization, operation: "destroy_by_id", failed: true},
	}, rec.calls)
}

func TestGateway_StoreErrors(t *testing.T) {
	mock := testutil.NewMockDB(t)
	products, err := gateway.New[models.Product, *models.Product](mock.DB, testutil.NewRegistry(t), models.EntityProduct, gateway.Config{})
	require.NoError(t, err)

	mock.Mock.ExpectQuery(`SELECT \* FROM "products"`).WillReturnError(errors.New("connection reset"))

	_, err = products.FindAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrStore))
	assert.Equal(t, shared.CodeStore, shared.CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
	mock.ExpectationsWereMet(t)
}
