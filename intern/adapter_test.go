package intern

import (
	"math"
	"net/netip"
	"net/url"
	"testing"
)

type label string

type temperature struct {
	celsius int
}

func (t temperature) String() string {
	return Int(t.celsius).InternValue() + "C"
}

type nilSafe struct{}

func (n *nilSafe) String() string {
	if n == nil {
		return "none"
	}
	return "some"
}

func TestAdapters(t *testing.T) {
	tests := []struct {
		name  string
		value Valuer
		want  string
	}{
		{name: "string", value: String("hola"), want: "hola"},
		{name: "bytes", value: Bytes("hola"), want: "hola"},
		{name: "negative int", value: Int(-42), want: "-42"},
		{name: "uint", value: Uint(math.MaxUint64), want: "18446744073709551615"},
		{name: "float", value: Float(0.1), want: "0.1"},
		{name: "negative zero", value: Float(math.Copysign(0, -1)), want: "-0"},
		{name: "bool", value: Bool(true), want: "true"},
		{name: "stringer", value: Stringer(temperature{celsius: 21}), want: "21C"},
		{name: "addr", value: Stringer(netip.MustParseAddr("192.0.2.1")), want: "192.0.2.1"},
		{name: "nil stringer", value: Stringer(nil), want: ""},
		{name: "typed nil stringer", value: Stringer((*url.URL)(nil)), want: ""},
		{name: "nil-safe stringer", value: Stringer((*nilSafe)(nil)), want: "none"},
		{name: "nil valuer", value: nil, want: ""},
	}

	pool := NewPool(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := pool.From(tt.value)
			second := pool.From(tt.value)
			if first.Value() != tt.want {
				t.Fatalf("want %q got %q", tt.want, first.Value())
			}
			if first != second {
				t.Fatalf("adapter produced different entries for the same value")
			}
			if first != pool.Intern(tt.want) {
				t.Fatalf("adapter content does not share the string entry")
			}
		})
	}
}

func TestGenericConstructors(t *testing.T) {
	pool := NewPool(Options{})
	fromNamed := NewIn(pool, label("env"))
	fromString := NewIn(pool, "env")
	fromBytes := NewIn(pool, []byte("env"))
	if fromNamed != fromString || fromString != fromBytes {
		t.Fatalf("generic constructors must converge on one entry")
	}
	if pool.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", pool.Len())
	}
}

func TestHandleReinternsIntoOtherPool(t *testing.T) {
	src := NewPool(Options{})
	dst := NewPool(Options{})
	h := src.Intern("migrate")
	moved := dst.From(h)
	if moved == h {
		t.Fatalf("expected a distinct entry in the destination pool")
	}
	if moved.Value() != "migrate" || moved.Pool() != dst {
		t.Fatalf("unexpected re-interned handle %q", moved.Value())
	}
	if From(String("default-adapter")) != New("default-adapter") {
		t.Fatalf("package level constructors must share the default pool")
	}
}
