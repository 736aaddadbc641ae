package intent

import (
	"strings"

	"kwhmi/agent/internal/keyword"
)

// Command is a single actuation request for one output.
type Command struct {
	Object string
	On     bool
}

func (c Command) String() string {
	if c.On {
		return strings.ToUpper(c.Object) + " ON"
	}
	return strings.ToUpper(c.Object) + " OFF"
}

// Resolve maps an exact {object, action} pair to a command. Anything else,
// including extra flags, a lone half, or an empty set, resolves to nothing.
func Resolve(v *keyword.Vocabulary, intent keyword.Set) (Command, bool) {
	if v == nil {
		v = keyword.Default()
	}
	action := intent & keyword.Actions
	object := intent & v.Objects()
	if intent != action|object || !action.Single() {
		return Command{}, false
	}
	name, ok := v.ObjectName(object)
	if !ok {
		return Command{}, false
	}
	return Command{Object: name, On: action == keyword.Activate}, true
}
