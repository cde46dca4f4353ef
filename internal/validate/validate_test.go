package validate

import "testing"

func TestName(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"feature-x", false},
		{"feature_123", false},
		{"UPPER", false},
		{"", true},
		{"../etc", true},
		{"has/slash", true},
		{"has space", true},
		{"semi;colon", true},
	}
	for _, c := range cases {
		err := Name(c.name)
		if (err != nil) != c.wantErr {
			t.Errorf("Name(%q) error = %v, wantErr %v", c.name, err, c.wantErr)
		}
	}
}

func TestNameTooLong(t *testing.T) {
	long := make([]byte, maxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := Name(string(long)); err == nil {
		t.Error("expected error for over-length name")
	}
}

func TestBranchPrefix(t *testing.T) {
	cases := []struct {
		prefix  string
		wantErr bool
	}{
		{"para/", false},
		{"para", false},
		{"team-x", false},
		{"feature/para", false},
		{"", true},
		{"../etc", true},
		{"para//x", true},
		{"has space", true},
		{"semi;colon/", true},
	}
	for _, c := range cases {
		err := BranchPrefix(c.prefix)
		if (err != nil) != c.wantErr {
			t.Errorf("BranchPrefix(%q) error = %v, wantErr %v", c.prefix, err, c.wantErr)
		}
	}
}
