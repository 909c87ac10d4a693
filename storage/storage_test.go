package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"car-rental-storefront/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	. "github.com/onsi/gomega"
	"gorm.io/datatypes"
)

func newStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionStore(client, ""), mr
}

type sessionDoc struct {
	Step string `json:"step"`
	Car  uint   `json:"car"`
}

func TestSessionStoreRoundTripAndExpiry(t *testing.T) {
	g := NewWithT(t)
	store, mr := newStore(t)
	ctx := context.Background()

	g.Expect(store.Save(ctx, "abc", sessionDoc{Step: "collecting_customer", Car: 7}, time.Minute)).To(Succeed())
	g.Expect(mr.Exists("booking:session:abc")).To(BeTrue())

	var got sessionDoc
	g.Expect(store.Load(ctx, "abc", &got)).To(Succeed())
	g.Expect(got).To(Equal(sessionDoc{Step: "collecting_customer", Car: 7}))

	mr.FastForward(2 * time.Minute)
	g.Expect(store.Load(ctx, "abc", &got)).To(MatchError(ErrSessionMissing))
}

func TestSessionStoreDelete(t *testing.T) {
	g := NewWithT(t)
	store, _ := newStore(t)
	ctx := context.Background()

	g.Expect(store.Save(ctx, "abc", sessionDoc{Car: 1}, time.Minute)).To(Succeed())
	g.Expect(store.Delete(ctx, "abc")).To(Succeed())

	var got sessionDoc
	g.Expect(store.Load(ctx, "abc", &got)).To(MatchError(ErrSessionMissing))
	g.Expect(store.Delete(ctx, "missing")).To(Succeed())
}

func TestSessionStoreSaveExisting(t *testing.T) {
	g := NewWithT(t)
	store, mr := newStore(t)
	ctx := context.Background()

	g.Expect(store.SaveExisting(ctx, "abc", sessionDoc{Car: 1}, time.Minute)).To(MatchError(ErrSessionMissing))
	g.Expect(mr.Exists("booking:session:abc")).To(BeFalse())

	g.Expect(store.Save(ctx, "abc", sessionDoc{Car: 1}, time.Minute)).To(Succeed())
	g.Expect(store.SaveExisting(ctx, "abc", sessionDoc{Step: "collecting_journey", Car: 1}, time.Minute)).To(Succeed())

	var got sessionDoc
	g.Expect(store.Load(ctx, "abc", &got)).To(Succeed())
	g.Expect(got.Step).To(Equal("collecting_journey"))

	g.Expect(store.Delete(ctx, "abc")).To(Succeed())
	g.Expect(store.SaveExisting(ctx, "abc", sessionDoc{Car: 1}, time.Minute)).To(MatchError(ErrSessionMissing))
}

func TestSessionLock(t *testing.T) {
	g := NewWithT(t)
	store, mr := newStore(t)
	ctx := context.Background()

	release, err := store.Lock(ctx, "abc", time.Minute)
	g.Expect(err).NotTo(HaveOccurred())

	_, err = store.Lock(ctx, "abc", time.Minute)
	g.Expect(err).To(MatchError(ErrLocked))

	release()
	g.Expect(mr.Exists("booking:session:abc:lock")).To(BeFalse())

	release2, err := store.Lock(ctx, "abc", time.Minute)
	g.Expect(err).NotTo(HaveOccurred())
	defer release2()
}

func TestStaleReleaseKeepsNewerLock(t *testing.T) {
	g := NewWithT(t)
	store, mr := newStore(t)
	ctx := context.Background()

	stale, err := store.Lock(ctx, "abc", time.Second)
	g.Expect(err).NotTo(HaveOccurred())
	mr.FastForward(2 * time.Second)

	_, err = store.Lock(ctx, "abc", time.Minute)
	g.Expect(err).NotTo(HaveOccurred())

	stale()
	g.Expect(mr.Exists("booking:session:abc:lock")).To(BeTrue())
}

func TestValidateImage(t *testing.T) {
	g := NewWithT(t)

	g.Expect(ValidateImage("image/png", 1024)).To(Succeed())
	g.Expect(ValidateImage("IMAGE/JPEG", MaxImageBytes)).To(Succeed())
	g.Expect(ValidateImage("application/pdf", 10)).To(MatchError(ErrNotAnImage))
	g.Expect(ValidateImage("", 10)).To(MatchError(ErrNotAnImage))
	g.Expect(ValidateImage("image/webp", MaxImageBytes+1)).To(MatchError(ErrImageTooLarge))
}

func TestResolveImageURL(t *testing.T) {
	g := NewWithT(t)

	g.Expect(ResolveImageURL("http://api.local/", "swift.png")).To(Equal("http://api.local/storage/cars/swift.png"))
	g.Expect(ResolveImageURL("http://api.local", "/swift.png")).To(Equal("http://api.local/storage/cars/swift.png"))
	g.Expect(ResolveImageURL("http://api.local", "https://cdn.example.com/a.jpg")).To(Equal("https://cdn.example.com/a.jpg"))
	g.Expect(ResolveImageURL("http://api.local", "  ")).To(BeEmpty())
}

func TestOpenDBMigratesAuditLog(t *testing.T) {
	g := NewWithT(t)

	db, err := OpenDB("sqlite", filepath.Join(t.TempDir(), "audit.db"), true)
	g.Expect(err).NotTo(HaveOccurred())

	entry := models.AuditLog{Actor: "ops", Action: "car.deleted", ResourceType: "car", ResourceID: 4, Before: datatypes.JSON(`{"id":4}`)}
	g.Expect(db.Create(&entry).Error).To(Succeed())
	g.Expect(entry.ID).NotTo(BeZero())

	var count int64
	g.Expect(db.Model(&models.AuditLog{}).Where("resource_type = ?", "car").Count(&count).Error).To(Succeed())
	g.Expect(count).To(Equal(int64(1)))

	_, err = OpenDB("oracle", "x", true)
	g.Expect(err).To(MatchError(ContainSubstring("unsupported db driver")))
}
