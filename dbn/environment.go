package dbn

// environment is a scope of variables, commands and numbers. Lookups fall
// through to the enclosing scope; assignments are always local.
type environment struct {
	outer    *environment
	vars     map[string]int
	commands map[string]*DefineCommandStatement
	numbers  map[string]*DefineNumberStatement
}

func newEnvironment() *environment {
	return &environment{
		vars:     make(map[string]int),
		commands: make(map[string]*DefineCommandStatement),
		numbers:  make(map[string]*DefineNumberStatement),
	}
}

func newEnclosedEnvironment(outer *environment) *environment {
	env := newEnvironment()
	env.outer = outer
	return env
}

func (e *environment) get(name string) (int, bool) {
	for s := e; s != nil; s = s.outer {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return 0, false
}

func (e *environment) set(name string, v int) {
	e.vars[name] = v
}

func (e *environment) command(name string) (*DefineCommandStatement, bool) {
	for s := e; s != nil; s = s.outer {
		if c, ok := s.commands[name]; ok {
			return c, true
		}
	}
	return nil, false
}

func (e *environment) number(name string) (*DefineNumberStatement, bool) {
	for s := e; s != nil; s = s.outer {
		if n, ok := s.numbers[name]; ok {
			return n, true
		}
	}
	return nil, false
}
