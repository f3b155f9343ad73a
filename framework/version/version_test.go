package version

import "testing"

func TestParse_TagPrefix(t *testing.T) {
	v, err := Parse("v2.7.0")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.String() != "2.7.0" {
		t.Errorf("expected 2.7.0, got %q", v.String())
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("not-a-version"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestEqual(t *testing.T) {
	eq, err := Equal("v2.7.0", "2.7.0")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !eq {
		t.Error("expected v2.7.0 and 2.7.0 to be equal")
	}

	eq, err = Equal("2.7.0", "2.7.1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if eq {
		t.Error("expected 2.7.0 and 2.7.1 to differ")
	}
}

func TestAtLeast(t *testing.T) {
	cases := []struct {
		s, target string
		want      bool
	}{
		{"2.7.0", "2.6.1", true},
		{"2.7.0", "2.7.0", true},
		{"2.6.1", "2.7.0", false},
		{"2.7.0-rc.1", "2.7.0", false},
	}

	for _, tc := range cases {
		got, err := AtLeast(tc.s, tc.target)
		if err != nil {
			t.Fatalf("AtLeast(%q, %q): %v", tc.s, tc.target, err)
		}
		if got != tc.want {
			t.Errorf("AtLeast(%q, %q) = %v, want %v", tc.s, tc.target, got, tc.want)
		}
	}
}

func TestIsUpgrade(t *testing.T) {
	up, err := IsUpgrade("2.6.1", "2.7.0")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !up {
		t.Error("expected 2.6.1 -> 2.7.0 to be an upgrade")
	}

	up, err = IsUpgrade("2.7.0", "2.7.0")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if up {
		t.Error("expected same-version move to not be an upgrade")
	}
}
