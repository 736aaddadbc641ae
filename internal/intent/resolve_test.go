package intent

import (
	"testing"

	"kwhmi/agent/internal/keyword"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name   string
		intent keyword.Set
		want   Command
		ok     bool
	}{
		{"green on", keyword.Green | keyword.Activate, Command{"green", true}, true},
		{"green off", keyword.Green | keyword.Deactivate, Command{"green", false}, true},
		{"red on", keyword.Red | keyword.Activate, Command{"red", true}, true},
		{"red off", keyword.Red | keyword.Deactivate, Command{"red", false}, true},
		{"empty", 0, Command{}, false},
		{"lone action", keyword.Activate, Command{}, false},
		{"lone object", keyword.Red, Command{}, false},
		{"both actions", keyword.Red | keyword.Activate | keyword.Deactivate, Command{}, false},
		{"two objects", keyword.Red | keyword.Green | keyword.Activate, Command{}, false},
		{"with unknown", keyword.Red | keyword.Activate | keyword.Unknown, Command{}, false},
		{"foreign bit", keyword.Red | keyword.Activate | keyword.Set(1<<30), Command{}, false},
	}
	for _, c := range cases {
		got, ok := Resolve(nil, c.intent)
		if ok != c.ok || got != c.want {
			t.Errorf("%s: got %v/%v want %v/%v", c.name, got, ok, c.want, c.ok)
		}
	}
}
