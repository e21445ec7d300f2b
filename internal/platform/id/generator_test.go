package id

import "testing"

func TestUUIDGenerator_NewID(t *testing.T) {
	g := NewUUIDGenerator()

	a, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	b, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if a == b {
		t.Fatalf("expected unique ids, got %q twice", a)
	}
	if !Valid(a) {
		t.Fatalf("expected generated id %q to be valid", a)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "", want: false},
		{in: "req-123_abc", want: true},
		{in: "0f8fad5b-d9cb-469f-a165-70867728950e", want: true},
		{in: "bad id", want: false},
		{in: "<script>", want: false},
	}

	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Fatalf("Valid(%q)=%v want=%v", tt.in, got, tt.want)
		}
	}
}
