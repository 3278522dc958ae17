package errors

import "testing"

func TestDecodeKindStringMapsToHostErrorNames(t *testing.T) {
	tests := []struct {
		kind DecodeKind
		want string
	}{
		{DanglingReference, "ReferenceError"},
		{UnknownType, "TypeError"},
		{InvalidDate, "TypeError"},
		{MissingNative, "RangeError"},
		{ShapeMismatch, "ShapeError"},
		{PrototypeCycle, "TypeError"},
		{DecodeKind(99), "Error"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("DecodeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestDecodeErrorMessageIncludesRecordIndexWhenScoped(t *testing.T) {
	err := NewDecodeError(UnknownType, 3, "no constructor for %q", "Widget")
	want := `TypeError: record 3: no constructor for "Widget"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDecodeErrorMessageOmitsRecordIndexWhenNotScoped(t *testing.T) {
	err := NewDecodeError(ShapeMismatch, -1, "expected a record array, got %s", "object")
	want := "ShapeError: expected a record array, got object"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
