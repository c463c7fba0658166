package cliargs

import (
	"reflect"
	"testing"
)

func TestEnvFlagsEmpty(t *testing.T) {
	got, err := EnvFlags("")
	if err != nil {
		t.Fatalf("EnvFlags(\"\") error: %v", err)
	}
	if got != nil {
		t.Errorf("EnvFlags(\"\") = %#v, want nil", got)
	}
}

func TestEnvFlagsSplitsShellQuoting(t *testing.T) {
	got, err := EnvFlags(`-O 2 -dump-cfg "cfg out"`)
	if err != nil {
		t.Fatalf("EnvFlags error: %v", err)
	}
	want := []string{"-O", "2", "-dump-cfg", "cfg out"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EnvFlags = %#v, want %#v", got, want)
	}
}

func TestEnvFlagsRejectsUnbalancedQuotes(t *testing.T) {
	if _, err := EnvFlags(`-O "unterminated`); err == nil {
		t.Error("expected an error for unbalanced quoting")
	}
}

func TestPrependOrdersExtraBeforeArgs(t *testing.T) {
	got := Prepend([]string{"-O", "1"}, []string{"-impl", "out.c"})
	want := []string{"-O", "1", "-impl", "out.c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prepend = %#v, want %#v", got, want)
	}
}

func TestPrependWithNoExtra(t *testing.T) {
	got := Prepend(nil, []string{"-impl", "out.c"})
	want := []string{"-impl", "out.c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prepend = %#v, want %#v", got, want)
	}
}
