package paths

import "testing"

func TestWorkspacePathRejectsUnsafeNames(t *testing.T) {
	if _, err := WorkspacePath("../escape"); err == nil {
		t.Error("expected error for path-traversal name")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	a, err := GenerateID()
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateID()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("expected two generated ids to differ")
	}
	if len(a) != 36 {
		t.Errorf("expected a 36-char UUID string, got %d (%q)", len(a), a)
	}
}
