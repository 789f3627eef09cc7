package repository

import (
	"reflect"
	"testing"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"250", 250, true},
		{"250 ₽", 250, true},
		{"250,00", 250, true},
		{"1 250,50", 1250, true},
		{"$12.99", 12, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-5", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, ok := NormalizePrice(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizePrice(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", true},
		{"2024-12-07", "2024-12-07", true},
		{"2024-12-07 00:00:00", "2024-12-07", true},
		{"07.12.2024", "2024-12-07", true},
		{"2024-13-40", "", false},
		{"tomorrow", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeDate(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"Да", "yes", " YES ", "1", "true", "+", "✓"} {
		if !IsTruthy(v) {
			t.Errorf("expected %q to be truthy", v)
		}
	}
	for _, v := range []string{"", "no", "0", "нет", "false", "-"} {
		if IsTruthy(v) {
			t.Errorf("expected %q to be falsy", v)
		}
	}
}

func TestDishNames(t *testing.T) {
	got := dishNames("Borscht x2; Mixed fruit box x1; broken; Bread xl")
	want := []string{"Borscht", "Mixed fruit box"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
