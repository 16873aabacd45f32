package auth

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

func TestFileStore(t *testing.T) {
	fs := afero.NewMemMapFs()

	store, err := NewFileStore(fs, "/home/me/.config/ytmdeck/token.json")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	token, err := store.Load()
	if err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if token != nil {
		t.Error("Load() should return nil for non-existent token")
	}

	want := &Token{Value: "abc", AppID: "ytmdeck", IssuedAt: time.Unix(1700000000, 0).UTC()}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := fs.Stat(store.Location())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Value != want.Value || loaded.AppID != want.AppID || !loaded.IssuedAt.Equal(want.IssuedAt) {
		t.Errorf("Load() = %+v, want %+v", loaded, want)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Errorf("Delete() on missing file error = %v", err)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/token.json", []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}

	store, _ := NewFileStore(fs, "/token.json")
	if _, err := store.Load(); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store := NewKeyringStore("ytmdeck-test")

	if tok, err := store.Load(); err != nil || tok != nil {
		t.Fatalf("Load() = %v, %v, want nil, nil", tok, err)
	}

	if err := store.Save(&Token{Value: "xyz"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tok, err := store.Load()
	if err != nil || tok.Value != "xyz" {
		t.Fatalf("Load() = %+v, %v", tok, err)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Errorf("Delete() of missing entry error = %v", err)
	}
}
