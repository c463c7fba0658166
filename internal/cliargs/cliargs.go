// Package cliargs implements the RVXLATE_FLAGS convention described
// in §9: extra command-line flags sourced from the environment, the
// way teacher tools like findflakes read additional arguments from a
// shell-quoted environment variable before flag.Parse runs.
package cliargs

import "github.com/kballard/go-shellquote"

// EnvFlags splits the value of the given environment variable using
// shell quoting rules and returns the resulting argument list. An
// empty or unset value yields nil.
func EnvFlags(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	return shellquote.Split(value)
}

// Prepend returns args with extra inserted before it, the order
// flag.Parse needs so that explicit command-line flags can still
// override anything sourced from the environment.
func Prepend(extra, args []string) []string {
	out := make([]string, 0, len(extra)+len(args))
	out = append(out, extra...)
	out = append(out, args...)
	return out
}
