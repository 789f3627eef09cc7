package db

import (
	"io/fs"
	"reflect"
	"testing"
)

func TestSetCell(t *testing.T) {
	cells := []string{"1", "Soup"}

	got := setCell(cells, 4, "Yes")
	want := []string{"1", "Soup", "", "Yes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(cells) != 2 {
		t.Fatalf("input mutated: %v", cells)
	}

	got = setCell(cells, 1, "7")
	if got[0] != "7" || got[1] != "Soup" {
		t.Fatalf("unexpected %v", got)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	var up, down int
	for _, e := range entries {
		switch {
		case len(e.Name()) > 7 && e.Name()[len(e.Name())-7:] == ".up.sql":
			up++
		case len(e.Name()) > 9 && e.Name()[len(e.Name())-9:] == ".down.sql":
			down++
		}
	}
	if up == 0 || up != down {
		t.Fatalf("expected paired up/down migrations, got %d up and %d down", up, down)
	}
}
