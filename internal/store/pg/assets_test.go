package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"signhub.io/internal/asset"
)

func TestFindAssetScopedToTenant(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select (.+) from assets where tenant_id = \\$1 and id = \\$2").
		WithArgs("t-acme", "a-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "media_type", "size_bytes", "created_at", "updated_at"}).
			AddRow("a-1", "t-acme", "lobby loop", "video/mp4", int64(1024), now, now))

	got, err := store.FindAsset(context.Background(), "t-acme", "a-1")
	if err != nil {
		t.Fatalf("FindAsset: %v", err)
	}
	if got.TenantID != "t-acme" {
		t.Fatalf("unexpected asset: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindAssetForeignTenantIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+) from assets where tenant_id = \\$1 and id = \\$2").
		WithArgs("t-other", "a-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.FindAsset(context.Background(), "t-other", "a-1"); !errors.Is(err, asset.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAssetStampsTenant(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("insert into assets").
		WithArgs(sqlmock.AnyArg(), "t-acme", "lobby loop", "video/mp4", int64(2048)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	a := &asset.Asset{TenantID: "t-intruder", Name: "lobby loop", MediaType: "video/mp4", SizeBytes: 2048}
	if err := store.CreateAsset(context.Background(), "t-acme", a); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if a.TenantID != "t-acme" {
		t.Fatalf("tenant id not stamped: %q", a.TenantID)
	}
	if a.ID == "" {
		t.Fatal("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteAssetMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from assets where tenant_id = \\$1 and id = \\$2").
		WithArgs("t-acme", "a-ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteAsset(context.Background(), "t-acme", "a-ghost"); !errors.Is(err, asset.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
