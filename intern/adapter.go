package intern

import (
	"fmt"
	"reflect"
	"strconv"
)

// Valuer is implemented by values that can be converted into canonical
// content. InternValue must be free of side effects and must return
// byte-for-byte identical content for equivalent values.
type Valuer interface {
	InternValue() string
}

// Text is the set of types whose content is their own bytes.
type Text interface {
	~string | ~[]byte
}

// New interns v in the Default pool.
func New[T Text](v T) Handle {
	return NewIn(Default(), v)
}

// NewIn interns v in p.
func NewIn[T Text](p *Pool, v T) Handle {
	if b, ok := any(v).([]byte); ok {
		return p.InternBytes(b)
	}
	return p.Intern(string(v))
}

// From interns the content produced by v in the Default pool.
func From(v Valuer) Handle {
	return Default().From(v)
}

// From interns the content produced by v. A nil v interns the empty
// content.
func (p *Pool) From(v Valuer) Handle {
	switch v := v.(type) {
	case nil:
		return p.Intern("")
	case Bytes:
		return p.InternBytes(v)
	default:
		return p.Intern(v.InternValue())
	}
}

// String adapts a string.
type String string

func (s String) InternValue() string { return string(s) }

// Bytes adapts a byte slice. The bytes are copied only when the content is
// new to the pool.
type Bytes []byte

func (b Bytes) InternValue() string { return string(b) }

// Int adapts a signed integer using its base 10 form.
type Int int64

func (i Int) InternValue() string { return strconv.FormatInt(int64(i), 10) }

// Uint adapts an unsigned integer using its base 10 form.
type Uint uint64

func (u Uint) InternValue() string { return strconv.FormatUint(uint64(u), 10) }

// Float adapts a float64 using the shortest representation that round-trips.
type Float float64

func (f Float) InternValue() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Bool adapts a boolean as "true" or "false".
type Bool bool

func (b Bool) InternValue() string { return strconv.FormatBool(bool(b)) }

type stringer struct {
	v fmt.Stringer
}

func (s stringer) InternValue() (content string) {
	if s.v == nil {
		return ""
	}
	defer func() {
		// A nil pointer whose String method dereferences it yields the
		// empty content, as fmt renders it without failing.
		if r := recover(); r != nil {
			if v := reflect.ValueOf(s.v); v.Kind() == reflect.Pointer && v.IsNil() {
				content = ""
				return
			}
			panic(r)
		}
	}()
	return s.v.String()
}

// Stringer adapts any fmt.Stringer through its String method. The String
// method must be deterministic. A typed nil pointer whose String method
// cannot handle nil produces the empty content.
func Stringer(v fmt.Stringer) Valuer {
	return stringer{v: v}
}

// InternValue lets a handle be re-interned, typically into another pool.
func (h Handle) InternValue() string { return h.Value() }
