package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
	"catalog-admin/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []catalogtypes.Event
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, event catalogtypes.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) types() []catalogtypes.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalogtypes.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestFileService(t *testing.T, pageLimit int) (FileService, *recordingPublisher, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.StorageConfig{
		LocalPath:         root,
		AllowedExtensions: []string{".jpg"},
		PageLimit:         pageLimit,
	}
	store, err := storage.NewLocalFileStore(cfg, "/files")
	if err != nil {
		t.Fatal(err)
	}
	pub := &recordingPublisher{}
	return NewFileService(store, pub, cfg), pub, root
}

func TestFileService_ListPaginatesCategories(t *testing.T) {
	svc, _, root := newTestFileService(t, 2)
	for _, name := range []string{"A", "B", "C"} {
		if err := os.Mkdir(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := svc.List(context.Background(), "", 2, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Pagination.Total != 3 || resp.Pagination.TotalPages != 2 || resp.Pagination.Limit != 2 {
		t.Errorf("Unexpected pagination: %+v", resp.Pagination)
	}
	if len(resp.Categories) != 1 || resp.Categories[0].Name != "C" {
		t.Errorf("Expected page 2 to hold C, got %+v", resp.Categories)
	}
}

func TestFileService_ListHugePageIsEmpty(t *testing.T) {
	svc, _, root := newTestFileService(t, 50)
	if err := os.Mkdir(filepath.Join(root, "Shoes"), 0755); err != nil {
		t.Fatal(err)
	}

	for _, page := range []int{1<<62 + 1, int(^uint(0) >> 1)} {
		resp, err := svc.List(context.Background(), "", page, 50)
		if err != nil {
			t.Fatalf("List(page=%d) failed: %v", page, err)
		}
		if len(resp.Categories) != 0 {
			t.Errorf("Expected no categories past the last page, got %+v", resp.Categories)
		}
		if resp.Pagination.Total != 1 || resp.Pagination.Page != 2 {
			t.Errorf("Expected page clamped to 2 of total 1, got %+v", resp.Pagination)
		}
	}
}

func TestFileService_ListLeafPaginatesImages(t *testing.T) {
	svc, _, root := newTestFileService(t, 50)
	dir := filepath.Join(root, "Shoes")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		os.WriteFile(filepath.Join(dir, fmt.Sprintf("P%d.jpg", i)), []byte("x"), 0644)
	}

	resp, err := svc.List(context.Background(), "files/Shoes", 1, 500)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Categories == nil || len(resp.Categories) != 0 {
		t.Errorf("Expected empty non-nil categories, got %#v", resp.Categories)
	}
	if len(resp.Images) != 3 || resp.Pagination.Total != 3 {
		t.Errorf("Expected 3 images, got %d (%+v)", len(resp.Images), resp.Pagination)
	}
	if resp.Pagination.Limit != maxPageLimit {
		t.Errorf("Expected limit capped at %d, got %d", maxPageLimit, resp.Pagination.Limit)
	}
}

func TestFileService_MutationsPublishEvents(t *testing.T) {
	svc, pub, _ := newTestFileService(t, 50)
	ctx := context.Background()

	if _, err := svc.CreateFolder(ctx, "", "   "); !errors.Is(err, catalogtypes.ErrInvalidName) {
		t.Fatalf("Expected ErrInvalidName, got %v", err)
	}
	if len(pub.types()) != 0 {
		t.Fatalf("Expected no event for a rejected folder, got %v", pub.types())
	}

	if _, err := svc.CreateFolder(ctx, "", "Shoes"); err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if _, err := svc.Upload(ctx, catalogtypes.UploadInput{Dir: "Shoes", FileName: "A1.jpg", Reader: strings.NewReader("x")}); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := svc.Delete(ctx, "Shoes", "A1.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got := pub.types()
	want := []catalogtypes.EventType{catalogtypes.FolderCreatedEvent, catalogtypes.ImageUploadedEvent, catalogtypes.EntryDeletedEvent}
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if pub.events[1].Dir != "Shoes" {
		t.Errorf("Expected upload event dir Shoes, got %q", pub.events[1].Dir)
	}
}

func TestFileService_PublisherFailureDoesNotFailMutation(t *testing.T) {
	svc, pub, _ := newTestFileService(t, 50)
	pub.err = errors.New("broker down")
	if _, err := svc.CreateFolder(context.Background(), "", "Shoes"); err != nil {
		t.Errorf("Expected mutation to succeed despite publisher error, got %v", err)
	}
}

func TestFanoutPublisher(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("boom")}
	pub := NewFanoutPublisher(
		EventSink{Name: "hub", Publisher: ok},
		EventSink{Name: "kafka", Publisher: failing},
		EventSink{Name: "disabled", Publisher: nil},
	)

	err := pub.Publish(context.Background(), catalogtypes.Event{Type: catalogtypes.FolderCreatedEvent})
	if err == nil || !strings.Contains(err.Error(), "kafka") {
		t.Errorf("Expected kafka error to surface, got %v", err)
	}
	if len(ok.events) != 1 || len(failing.events) != 1 {
		t.Errorf("Expected every active sink to receive the event")
	}
}

func newTestOrderService(t *testing.T) (OrderService, *recordingPublisher) {
	t.Helper()
	db, err := storage.InitDB(config.DatabaseConfig{Type: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "orders.db")})
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	pub := &recordingPublisher{}
	return NewOrderService(storage.NewGormOrderRepository(db), pub), pub
}

func TestOrderService_CreateValidates(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	cases := []CreateOrderInput{
		{CustomerName: "  ", Items: []OrderItemInput{{Code: "A1"}}},
		{CustomerName: "Ana"},
		{CustomerName: "Ana", Items: []OrderItemInput{{Code: ""}}},
		{CustomerName: "Ana", Items: []OrderItemInput{{Code: "A1", Quantity: -1}}},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, in); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("case %d: expected ErrInvalidOrder, got %v", i, err)
		}
	}
}

func TestOrderService_Lifecycle(t *testing.T) {
	svc, pub := newTestOrderService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateOrderInput{
		CustomerName: "Ana",
		Items:        []OrderItemInput{{Code: "A1", Category: "Shoes"}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(order.OrderNumber) != len("20060102-ABCDEF") || order.OrderNumber[8] != '-' {
		t.Errorf("Unexpected generated order number %q", order.OrderNumber)
	}
	if order.Items[0].Quantity != 1 {
		t.Errorf("Expected default quantity 1, got %d", order.Items[0].Quantity)
	}
	if !order.Pending {
		t.Error("Expected new order to be pending")
	}

	found, err := svc.List(ctx, OrderFilter{OrderNumber: order.OrderNumber[9:]})
	if err != nil || len(found) != 1 {
		t.Fatalf("Expected to find order by suffix, got %v %v", found, err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	byDate, err := svc.List(ctx, OrderFilter{Date: today})
	if err != nil || len(byDate) != 1 {
		t.Errorf("Expected one order today, got %v %v", byDate, err)
	}
	if _, err := svc.List(ctx, OrderFilter{Date: "01/02/2026"}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}

	done, err := svc.Complete(ctx, order.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Pending || done.CompletedAt == nil {
		t.Errorf("Expected completed order, got %+v", done)
	}
	if _, err := svc.Complete(ctx, 9999); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
	if _, err := svc.Complete(ctx, 0); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder for id 0, got %v", err)
	}

	got := pub.types()
	if len(got) != 2 || got[0] != catalogtypes.OrderCreatedEvent || got[1] != catalogtypes.OrderCompletedEvent {
		t.Errorf("Unexpected order events: %v", got)
	}
}

func TestSessionService(t *testing.T) {
	cfg := config.AuthConfig{AdminPassword: "s3cret", JWTSecretKey: "k", JWTExpiry: time.Hour}
	bl := auth.NewMemoryTokenBlacklist()
	svc := NewSessionService(cfg, bl)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "nope"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Expected ErrInvalidPassword, got %v", err)
	}

	token, exp, err := svc.Login(ctx, "s3cret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Errorf("Expected future expiry, got %v", exp)
	}
	claims, err := auth.ValidateToken(ctx, token, cfg.JWTSecretKey, bl)
	if err != nil {
		t.Fatalf("Expected issued token to validate: %v", err)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := auth.ValidateToken(ctx, token, cfg.JWTSecretKey, bl); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Errorf("Expected token to be revoked, got %v", err)
	}
	if err := svc.Logout(ctx, nil); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession, got %v", err)
	}
}
