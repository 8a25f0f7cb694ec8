package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{{"serve"}, {"admin", "create"}} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("find %v: %v", path, err)
		}
		if cmd.Name() != path[len(path)-1] {
			t.Fatalf("find %v resolved to %q", path, cmd.Name())
		}
	}
}

func TestAdminCreateRequiresUsername(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"admin", "create", "--email", "a@x.com"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--username") {
		t.Fatalf("expected missing username error, got %v", err)
	}
}
