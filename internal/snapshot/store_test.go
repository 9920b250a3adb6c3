package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "last_image.png"))
}

func TestRead_NoSnapshot(t *testing.T) {
	s := newStore(t)
	if _, err := s.Read(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestWriteRead_Roundtrip(t *testing.T) {
	s := newStore(t)
	payload := []byte("first")
	if err := s.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Read = %q want %q", got, payload)
	}

	// overwrite wins
	if err := s.Write([]byte("second")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err = s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("Read after overwrite = %q", got)
	}
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "last_image.png"))
	if err := s.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

// last-writer-wins: after concurrent writes the file holds exactly one
// of the payloads, never a mix.
func TestWrite_ConcurrentLastWriterWins(t *testing.T) {
	s := newStore(t)

	a := bytes.Repeat([]byte("a"), 1<<16)
	b := bytes.Repeat([]byte("b"), 1<<16)

	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := s.Write(a); err != nil {
				t.Errorf("Write a: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := s.Write(b); err != nil {
				t.Errorf("Write b: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, a) && !bytes.Equal(got, b) {
		t.Fatal("snapshot is neither of the written payloads")
	}
}
