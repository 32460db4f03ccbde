package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
	"github.com/nmalik/paysplit/internal/storage/sqlite"
)

// newTestStore creates a sqlite store backed by a temp database.
func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, notification Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// staticBook resolves display names from a fixed map keyed by
// "owner/target".
type staticBook struct {
	entries map[string]string
}

func (b *staticBook) ResolveDisplayName(_ context.Context, owner, target string) (string, error) {
	return b.entries[owner+"/"+target], nil
}

// mustCreateGroup seeds a group through the service layer.
func mustCreateGroup(t *testing.T, svc *GroupService, owner, name string, addrs ...string) *models.Group {
	t.Helper()

	members := make([]models.Member, len(addrs))
	for i, a := range addrs {
		members[i] = models.Member{Address: a}
	}
	group, err := svc.CreateGroup(context.Background(), owner, name, members)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}
