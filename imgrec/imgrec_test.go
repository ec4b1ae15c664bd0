package imgrec

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteCreatesDayFolderedFile(t *testing.T) {
	root := t.TempDir()
	r := New(root, "run")
	_, err := r.Write([]byte("not really fits"))
	if err != nil {
		t.Fatal(err)
	}
	p := r.Path()
	if filepath.Dir(filepath.Dir(p)) != root {
		t.Errorf("expected a single date folder under root, got %s", p)
	}
	if _, err := os.Stat(p); err != nil {
		t.Errorf("expected file at %s, got %v", p, err)
	}
}

func TestIncrSkipsPastExistingFiles(t *testing.T) {
	root := t.TempDir()
	r := New(root, "run")
	fldr, err := r.mkDir()
	if err != nil {
		t.Fatal(err)
	}
	for _, fn := range []string{"run000000.fits", "run000007.fits", "other000009.fits"} {
		err := os.WriteFile(filepath.Join(fldr, fn), []byte{}, 0666)
		if err != nil {
			t.Fatal(err)
		}
	}
	r.Incr()
	if r.counter != 8 {
		t.Errorf("expected counter to land after highest matching index, got %d", r.counter)
	}
}

func TestIncrOnEmptyFolderStartsAtZero(t *testing.T) {
	r := New(t.TempDir(), "run")
	r.Incr()
	if r.counter != 0 {
		t.Errorf("expected counter 0 on empty folder, got %d", r.counter)
	}
}
