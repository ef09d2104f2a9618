package domain

import "strings"

// Command is an external process invocation.
type Command struct {
	// Name is the executable; Args excludes it.
	Name string
	Args []string
	// Dir is the working directory.
	Dir string
	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	Env []string
	// TTY runs the process attached to a pseudo-terminal when available.
	TTY bool
}

// Line renders the command for logs.
func (c *Command) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}
