package kernel

import "testing"

func TestError(t *testing.T) {
	err := &Error{
		Module:  "vmm",
		Message: "frame allocation failed",
	}

	if err.Error() != err.Message {
		t.Fatalf("expected Error() to return %q; got %q", err.Message, err.Error())
	}
}
