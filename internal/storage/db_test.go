package storage

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func keys(t *testing.T, db DB, prefix string, reverse bool) string {
	t.Helper()
	var got []string
	err := db.Scan([]byte(prefix), reverse, func(key, _ []byte) error {
		got = append(got, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("Scan(%q): %v", prefix, err)
	}
	return strings.Join(got, ",")
}

// runSuite exercises a DB implementation. db must start empty.
func runSuite(t *testing.T, db DB) {
	t.Run("PutGetDelete", func(t *testing.T) {
		if err := db.Put([]byte("k"), []byte("v1")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		db.Put([]byte("k"), []byte("v2"))
		got, err := db.Get([]byte("k"))
		if err != nil || !bytes.Equal(got, []byte("v2")) {
			t.Fatalf("Get = %q, %v; want v2", got, err)
		}
		if err := db.Delete([]byte("k")); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := db.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get after Delete err = %v, want ErrNotFound", err)
		}
		if err := db.Delete([]byte("never")); err != nil {
			t.Errorf("Delete missing key: %v", err)
		}
	})

	t.Run("ValueIsCopied", func(t *testing.T) {
		v := []byte("abc")
		db.Put([]byte("copy"), v)
		v[0] = 'X'
		got, _ := db.Get([]byte("copy"))
		got[1] = 'Y'
		again, _ := db.Get([]byte("copy"))
		if string(again) != "abc" {
			t.Errorf("stored value changed to %q", again)
		}
		db.Delete([]byte("copy"))
	})

	db.Put([]byte("s/a"), []byte("1"))
	db.Put([]byte("s/b"), []byte("2"))
	db.Put([]byte("s/c"), []byte("3"))
	db.Put([]byte("s0"), []byte("x")) // sorts right after the s/ range
	db.Put([]byte("r"), []byte("y"))  // sorts right before it

	t.Run("ScanForward", func(t *testing.T) {
		if got := keys(t, db, "s/", false); got != "s/a,s/b,s/c" {
			t.Errorf("keys = %s", got)
		}
	})

	t.Run("ScanReverse", func(t *testing.T) {
		if got := keys(t, db, "s/", true); got != "s/c,s/b,s/a" {
			t.Errorf("keys = %s", got)
		}
		if got := keys(t, db, "", true); got != "s0,s/c,s/b,s/a,r" {
			t.Errorf("all keys reversed = %s", got)
		}
	})

	t.Run("ScanReverseLongNeighbour", func(t *testing.T) {
		db.Put([]byte("s0zzz"), []byte("z"))
		defer db.Delete([]byte("s0zzz"))
		if got := keys(t, db, "s/", true); got != "s/c,s/b,s/a" {
			t.Errorf("keys = %s", got)
		}
	})

	t.Run("ScanReverseUnderEnd", func(t *testing.T) {
		// The end key of "s/" is "s0", which exists. Its own range must
		// still scan in reverse.
		if got := keys(t, db, "s0", true); got != "s0" {
			t.Errorf("keys = %s", got)
		}
	})

	t.Run("ScanStop", func(t *testing.T) {
		var n int
		err := db.Scan([]byte("s/"), true, func(_, _ []byte) error {
			n++
			if n == 2 {
				return ErrStop
			}
			return nil
		})
		if err != nil || n != 2 {
			t.Errorf("n = %d, err = %v; want 2, nil", n, err)
		}
	})

	t.Run("ScanError", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.Scan([]byte("s/"), false, func(_, _ []byte) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	})

	t.Run("ScanEmpty", func(t *testing.T) {
		if got := keys(t, db, "nothing/", true); got != "" {
			t.Errorf("keys = %s", got)
		}
	})

	t.Run("DropPrefix", func(t *testing.T) {
		if err := db.DropPrefix([]byte("s/")); err != nil {
			t.Fatalf("DropPrefix: %v", err)
		}
		if got := keys(t, db, "", false); got != "r,s0" {
			t.Errorf("keys after drop = %s", got)
		}
	})
}

func TestMemory(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	runSuite(t, db)
}

func TestBadger(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()
	runSuite(t, db)
}

func TestBadger_Persistence(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	db.Put([]byte("h/a/1"), []byte("one"))
	db.Close()

	db, err = NewBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.Get([]byte("h/a/1"))
	if err != nil || string(got) != "one" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestBadger_Locked(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := NewBadger(dir); err == nil {
		t.Error("second open of the same directory should fail")
	}
}

func TestPrefixEnd(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{[]byte("h/"), []byte("h0")},
		{[]byte{0x01, 0xFF}, []byte{0x02}},
		{[]byte{0xFF, 0xFF}, nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := prefixEnd(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("prefixEnd(%x) = %x, want %x", tt.in, got, tt.want)
		}
	}
}
