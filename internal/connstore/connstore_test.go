package connstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connections.yaml")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, path
}

func TestAddGetRemove(t *testing.T) {
	s, _ := newTestStore(t)

	conn := &Connection{Name: "prod", Account: "org-acct", User: "loader"}
	if err := s.AddAndSave(conn); err != nil {
		t.Fatalf("AddAndSave: %v", err)
	}
	if conn.ID == "" {
		t.Error("expected generated ID")
	}
	if conn.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := s.Get("prod")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Account != "org-acct" {
		t.Errorf("Account = %q, want org-acct", got.Account)
	}

	removed, err := s.RemoveAndSave("prod")
	if err != nil {
		t.Fatalf("RemoveAndSave: %v", err)
	}
	if removed.ID != conn.ID {
		t.Errorf("removed ID = %q, want %q", removed.ID, conn.ID)
	}
	if _, err := s.Get("prod"); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("Get after remove = %v, want ErrConnectionNotFound", err)
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.AddAndSave(&Connection{Name: "prod", Account: "a", User: "u"}); err != nil {
		t.Fatalf("AddAndSave: %v", err)
	}
	err := s.AddAndSave(&Connection{Name: "prod", Account: "b", User: "v"})
	if !errors.Is(err, ErrConnectionExists) {
		t.Errorf("duplicate add = %v, want ErrConnectionExists", err)
	}
}

func TestRemoveMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.RemoveAndSave("ghost"); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("RemoveAndSave = %v, want ErrConnectionNotFound", err)
	}
}

func TestPersistsAcrossReload(t *testing.T) {
	s, path := newTestStore(t)
	if err := s.AddAndSave(&Connection{Name: "prod", Account: "org-acct", User: "loader", PrivateKey: "key material"}); err != nil {
		t.Fatalf("AddAndSave: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := s2.Get("prod")
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.PrivateKey != "key material" {
		t.Errorf("PrivateKey = %q, want key material", got.PrivateKey)
	}
}

func TestListSortedByName(t *testing.T) {
	s, _ := newTestStore(t)
	for _, name := range []string{"staging", "dev", "prod"} {
		if err := s.AddAndSave(&Connection{Name: name, Account: "a", User: "u"}); err != nil {
			t.Fatalf("AddAndSave(%s): %v", name, err)
		}
	}

	conns := s.List()
	if len(conns) != 3 {
		t.Fatalf("List returned %d connections, want 3", len(conns))
	}
	want := []string{"dev", "prod", "staging"}
	for i, c := range conns {
		if c.Name != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, c.Name, want[i])
		}
	}
}

func TestStoreFilePermissions(t *testing.T) {
	s, path := newTestStore(t)
	if err := s.AddAndSave(&Connection{Name: "prod", Account: "a", User: "u", Password: "secret"}); err != nil {
		t.Fatalf("AddAndSave: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("store file permissions = %o, want 600", perm)
	}
}
