package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"menuhub/internal/auth"
	"menuhub/internal/events"
	"menuhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func newMockStore(t *testing.T) (*IdentityStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewIdentityStore(db), mock
}

func TestIdentityStore_FindByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "email", "password", "role", "state", "active"}).
		AddRow(5, now, now, "foo@bar.com", "hash", "guest", "active", true)
	mock.ExpectQuery(`SELECT \* FROM "identities" WHERE email = \$1`).WillReturnRows(rows)

	identity, err := store.FindByEmail(context.Background(), " Foo@Bar.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if identity.ID != 5 || identity.Role != models.RoleGuest || !identity.Active {
		t.Fatalf("unexpected identity %+v", identity)
	}

	mock.ExpectQuery(`SELECT \* FROM "identities"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := store.FindByEmail(context.Background(), "missing@bar.com"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIdentityStore_FindPermissionsMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "employee_permissions"`).WillReturnRows(sqlmock.NewRows([]string{"identity_id"}))

	record, err := store.FindPermissions(context.Background(), 3)
	if err != nil || record != nil {
		t.Fatalf("expected nil record and no error, got %v %v", record, err)
	}
}

func TestIdentityStore_CreateIdentityDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "identities"`).WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	mock.ExpectRollback()

	identity := &models.Identity{Email: "Foo@Bar.com", Role: models.RoleGuest, State: models.StateActive, Active: true}
	err := store.CreateIdentity(context.Background(), identity, nil, nil)
	if !errors.Is(err, auth.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
	if identity.ID != 0 {
		t.Fatalf("failed create must not leave an id, got %d", identity.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIdentityStore_CreateIdentityWithLink(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "identities"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(`INSERT INTO "provider_links"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	identity := &models.Identity{Email: "fed@example.com", Role: models.RoleGuest, State: models.StateActive, Active: true}
	link := &models.ProviderLink{Provider: auth.ProviderGoogle, Subject: "sub-1"}
	if err := store.CreateIdentity(context.Background(), identity, link, nil); err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	if identity.ID != 11 || link.IdentityID != 11 {
		t.Fatalf("ids not propagated: identity %d link %d", identity.ID, link.IdentityID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestIdentityStore_UpdateStateMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE "identities" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateState(context.Background(), 42, models.StateSuspended, false)
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIdentityStore_DeleteStaleGuests(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "provider_links" WHERE identity_id IN \(SELECT`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "identities" WHERE role = \$1 AND created_at < \$2 AND last_login_at IS NULL`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := store.DeleteStaleGuests(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleGuests: %v", err)
	}
	if n != 3 {
		t.Fatalf("deleted %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTranslate(t *testing.T) {
	if !errors.Is(translate(gorm.ErrRecordNotFound), auth.ErrNotFound) {
		t.Fatal("record not found must map to ErrNotFound")
	}
	if !errors.Is(translate(gorm.ErrDuplicatedKey), auth.ErrDuplicateAccount) {
		t.Fatal("duplicated key must map to ErrDuplicateAccount")
	}
	other := errors.New("boom")
	if translate(other) != other {
		t.Fatal("other errors pass through")
	}
	if translate(nil) != nil {
		t.Fatal("nil stays nil")
	}
}

// countCreated counts IdentityCreated events for one email on the default bus.
func countCreated(email string) func() int32 {
	var n atomic.Int32
	events.On(events.IdentityCreated, func(data interface{}) {
		if identity, ok := data.(*models.Identity); ok && identity.Email == email {
			n.Add(1)
		}
	})
	return func() int32 {
		events.Drain()
		return n.Load()
	}
}

func TestIdentityStore_CreateEmitsNothing(t *testing.T) {
	store, mock := newMockStore(t)
	created := countCreated("store.only@example.com")

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "identities"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(30))
	mock.ExpectCommit()

	identity := &models.Identity{Email: "store.only@example.com", Role: models.RoleGuest, State: models.StateActive, Active: true}
	if err := store.CreateIdentity(context.Background(), identity, nil, nil); err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	if got := created(); got != 0 {
		t.Fatalf("store emitted %d creation events, want 0", got)
	}
}

func TestRegister_EmitsCreatedOnlyAfterCommit(t *testing.T) {
	h := newHarness(t)
	store, mock := newMockStore(t)
	h.verifier.identity.Email = "audit.fed@example.com"
	svc, err := NewSessionService(SessionDeps{Store: store, Codec: h.codec, Cookies: h.cookies, Verifier: h.verifier})
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	ctx := context.Background()

	local := countCreated("audit.local@example.com")
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "identities"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectCommit()
	if _, err := svc.Register(ctx, Registration{Email: "Audit.Local@example.com", Password: "pw-123456"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := local(); got != 1 {
		t.Fatalf("committed registration emitted %d events, want 1", got)
	}

	federated := countCreated("audit.fed@example.com")
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "identities"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(22))
	mock.ExpectQuery(`INSERT INTO "provider_links"`).WillReturnError(errors.New("link insert failed"))
	mock.ExpectRollback()
	_, err = svc.Register(ctx, Registration{Method: models.AuthMethodFederated, IDToken: "good-id-token"})
	if err == nil {
		t.Fatal("expected the failed link insert to abort registration")
	}
	if got := federated(); got != 0 {
		t.Fatalf("rolled-back registration emitted %d events, want 0", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
