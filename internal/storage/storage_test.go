package storage

import (
	"bytes"
	"errors"
	"sort"
	"testing"
)

// backends returns every DB implementation under test.
func backends(t *testing.T) map[string]DB {
	t.Helper()
	badger, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	t.Cleanup(func() { badger.Close() })
	return map[string]DB{
		"memory": NewMemory(),
		"badger": badger,
	}
}

func TestPutGet(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("k1")
			value := []byte("v1")

			if err := db.Put(key, value); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			got, err := db.Get(key)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if !bytes.Equal(got, value) {
				t.Errorf("Get() = %q, want %q", got, value)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := db.Get([]byte("missing"))
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() for missing key = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("doomed")
			if err := db.Put(key, []byte("x")); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			if err := db.Delete(key); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after delete = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestHas(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Put([]byte("present"), []byte("x")); err != nil {
				t.Fatalf("Put() error: %v", err)
			}

			ok, err := db.Has([]byte("present"))
			if err != nil {
				t.Fatalf("Has() error: %v", err)
			}
			if !ok {
				t.Error("Has() = false for existing key")
			}

			ok, err = db.Has([]byte("absent"))
			if err != nil {
				t.Fatalf("Has() error: %v", err)
			}
			if ok {
				t.Error("Has() = true for missing key")
			}
		})
	}
}

func TestForEachPrefix(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			entries := map[string]string{
				"acct:a": "1",
				"acct:b": "2",
				"xfer:c": "3",
			}
			for k, v := range entries {
				if err := db.Put([]byte(k), []byte(v)); err != nil {
					t.Fatalf("Put(%s) error: %v", k, err)
				}
			}

			var keys []string
			err := db.ForEach([]byte("acct:"), func(key, _ []byte) error {
				keys = append(keys, string(key))
				return nil
			})
			if err != nil {
				t.Fatalf("ForEach() error: %v", err)
			}

			sort.Strings(keys)
			if len(keys) != 2 || keys[0] != "acct:a" || keys[1] != "acct:b" {
				t.Errorf("ForEach() visited %v, want [acct:a acct:b]", keys)
			}
		})
	}
}

func TestForEachCallbackError(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Put([]byte("p:1"), []byte("x")); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			wantErr := errors.New("stop")
			err := db.ForEach([]byte("p:"), func(_, _ []byte) error {
				return wantErr
			})
			if !errors.Is(err, wantErr) {
				t.Errorf("ForEach() = %v, want the callback's error", err)
			}
		})
	}
}

func TestValueIsolation(t *testing.T) {
	db := NewMemory()
	value := []byte("original")
	if err := db.Put([]byte("k"), value); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	value[0] = 'X'

	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != "original" {
		t.Error("stored value must not alias the caller's slice")
	}
	got[0] = 'Y'

	again, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(again) != "original" {
		t.Error("returned value must not alias the stored slice")
	}
}

func TestBadgerPersistence(t *testing.T) {
	dir := t.TempDir()

	db, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	if err := db.Put([]byte("durable"), []byte("yes")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get([]byte("durable"))
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if string(got) != "yes" {
		t.Errorf("Get() after reopen = %q, want %q", got, "yes")
	}
}
