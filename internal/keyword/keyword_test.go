package keyword

import (
	"errors"
	"fmt"
	"testing"
)

func TestDefaultVocabularyMatchesConstants(t *testing.T) {
	v := Default()
	if f, ok := v.Flag("green"); !ok || f != Green {
		t.Fatalf("green: got %v ok=%v", f, ok)
	}
	if f, ok := v.Flag("RED"); !ok || f != Red {
		t.Fatalf("red: got %v ok=%v", f, ok)
	}
	if v.Objects() != Green|Red {
		t.Fatalf("objects mask: got %b", v.Objects())
	}
}

func TestParse(t *testing.T) {
	v := Default()
	cases := []struct {
		in   string
		want Set
	}{
		{"green", Green},
		{"green,activate", Green | Activate},
		{"RED|DEACTIVATE", Red | Deactivate},
		{" unknown ", Unknown},
		{"green red", Green | Red},
	}
	for _, c := range cases {
		got, err := v.Parse(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parse %q: got %v want %v", c.in, got, c.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	v := Default()
	if _, err := v.Parse("blue"); !errors.Is(err, ErrUnknownKeyword) {
		t.Fatalf("expected ErrUnknownKeyword, got %v", err)
	}
	if _, err := v.Parse(" , "); !errors.Is(err, ErrEmptySet) {
		t.Fatalf("expected ErrEmptySet, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	v := Default()
	if s := v.Format(Green | Activate); s != "GREEN|ACTIVATE" {
		t.Fatalf("got %q", s)
	}
	if s := v.Format(0); s != "NONE" {
		t.Fatalf("got %q", s)
	}
	if s := v.Format(Red | Set(1<<20)); s != "RED|bit20" {
		t.Fatalf("got %q", s)
	}
}

func TestSetStringIgnoresObjectNames(t *testing.T) {
	cases := []struct {
		in   Set
		want string
	}{
		{0, "NONE"},
		{Green | Activate, "obj0|ACTIVATE"},
		{Red | Deactivate | Unknown, "obj1|DEACTIVATE|UNKNOWN"},
		{Set(1 << 20), "obj17"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("%#x: got %q want %q", uint32(c.in), got, c.want)
		}
	}

	// Same bits under another vocabulary must not print as green/red
	v, err := NewVocabulary("lamp", "fan")
	if err != nil {
		t.Fatal(err)
	}
	fan, _ := v.Flag("fan")
	if got := fmt.Sprint(fan | Activate); got != "obj1|ACTIVATE" {
		t.Fatalf("got %q", got)
	}
	if got := v.Format(fan | Activate); got != "FAN|ACTIVATE" {
		t.Fatalf("got %q", got)
	}
}

func TestCustomVocabulary(t *testing.T) {
	v, err := NewVocabulary("lamp", "fan", "heater")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fan, _ := v.Flag("fan")
	name, ok := v.ObjectName(fan)
	if !ok || name != "fan" {
		t.Fatalf("object name: got %q ok=%v", name, ok)
	}
	if _, ok := v.ObjectName(fan | Activate); ok {
		t.Fatal("multi-bit set must not resolve to an object")
	}
	if _, err := NewVocabulary("lamp", "activate"); err == nil {
		t.Fatal("expected error for reserved name")
	}
	if _, err := NewVocabulary("lamp", "LAMP"); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}
