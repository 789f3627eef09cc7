package cart

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/pizza-nz/lunch-bot/internal/models"
)

var (
	borscht = models.Dish{ID: "1", Name: "Borscht", Price: 250, Cafe: "Coffee Time", Description: "Soup"}
	bread   = models.Dish{ID: "6", Name: "Bread", Price: 30, Cafe: "Coffee Time"}
)

func TestAddMergesSameDish(t *testing.T) {
	items, msg, err := Add(nil, borscht, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(msg, "added") {
		t.Fatalf("unexpected message %q", msg)
	}

	items, _, _ = Add(items, bread, 1)
	items, msg, err = Add(items, borscht, 3)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(msg, "updated to 5") {
		t.Fatalf("unexpected message %q", msg)
	}

	if len(items) != 2 || items[0].DishID != "1" || items[0].Quantity != 5 || items[1].DishID != "6" {
		t.Fatalf("unexpected cart %+v", items)
	}
	if items[0].Description != "Soup" || items[0].Price != 250 {
		t.Fatalf("expected dish snapshot, got %+v", items[0])
	}
}

func TestAddDoesNotMutateInput(t *testing.T) {
	items, _, _ := Add(nil, borscht, 1)
	next, _, _ := Add(items, borscht, 1)

	if items[0].Quantity != 1 {
		t.Fatalf("input mutated: %+v", items)
	}
	if next[0].Quantity != 2 {
		t.Fatalf("unexpected cart %+v", next)
	}
}

func TestAddRejectsQuantityOutOfRange(t *testing.T) {
	for _, q := range []int{0, -1, 11} {
		items, _, err := Add(nil, borscht, q)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got %v", q, err)
		}
		if len(items) != 0 {
			t.Errorf("quantity %d: cart changed to %+v", q, items)
		}
	}
}

func TestMergeInvariant(t *testing.T) {
	dishes := []models.Dish{borscht, bread, {ID: "3", Name: "Salad", Price: 200}}
	rng := rand.New(rand.NewSource(1))

	var items []models.CartItem
	want := make(map[string]int)
	for i := 0; i < 200; i++ {
		d := dishes[rng.Intn(len(dishes))]
		q := MinQuantity + rng.Intn(MaxQuantity)
		var err error
		items, _, err = Add(items, d, q)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		want[d.ID] += q
	}

	seen := make(map[string]bool)
	for _, item := range items {
		if seen[item.DishID] {
			t.Fatalf("duplicate entry for dish %s", item.DishID)
		}
		seen[item.DishID] = true
		if item.Quantity != want[item.DishID] {
			t.Fatalf("dish %s: expected quantity %d, got %d", item.DishID, want[item.DishID], item.Quantity)
		}
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(items))
	}
}

func TestSummarize(t *testing.T) {
	text, total := Summarize(nil)
	if text != EmptyMessage || total != 0 {
		t.Fatalf("unexpected empty summary %q %d", text, total)
	}

	items, _, _ := Add(nil, borscht, 2)
	items, _, _ = Add(items, bread, 1)
	text, total = Summarize(items)
	if total != 530 {
		t.Fatalf("expected total 530, got %d", total)
	}
	for _, want := range []string{"1. Borscht x2 = 500 ₽", "2. Bread x1 = 30 ₽", "Total: 530 ₽"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary %q lacks %q", text, want)
		}
	}
	if Count(items) != 3 {
		t.Fatalf("expected 3 portions, got %d", Count(items))
	}
}
