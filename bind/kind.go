package bind

import (
	"fmt"
	"reflect"
	"time"
)

// Kind is the closed set of semantic value types the coercion layer knows
// how to move between Go values and columns. Nullable ("boxed") variants
// are not separate kinds; a pointer accessor type marks the binding
// nullable.
type Kind uint8

// Kinds of bindable values.
const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindChar
	KindEnum
	KindTime
	KindDuration
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	KindBool:     "bool",
	KindInt:      "int",
	KindInt8:     "int8",
	KindInt16:    "int16",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint:     "uint",
	KindUint8:    "uint8",
	KindUint16:   "uint16",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindString:   "string",
	KindBytes:    "bytes",
	KindChar:     "char",
	KindEnum:     "enum",
	KindTime:     "time",
	KindDuration: "duration",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Numeric reports whether the kind is an integer or float kind.
func (k Kind) Numeric() bool {
	return k >= KindInt && k <= KindFloat64
}

// Char is a single character stored as a one-character string column.
// The empty or NULL column value maps to the NUL character.
type Char rune

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	charType     = reflect.TypeOf(Char(0))
	bytesType    = reflect.TypeOf([]byte(nil))
	stringType   = reflect.TypeOf("")
)

// KindOf classifies an accessor value type. A pointer type is stripped and
// reported as nullable. Named types with a string underlying kind other
// than plain string classify as KindEnum and round-trip by name. Anything
// the closed set does not cover classifies as KindUnknown and is fetched
// generically with no further coercion.
func KindOf(t reflect.Type) (kind Kind, nullable bool) {
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}
	switch t {
	case timeType:
		return KindTime, nullable
	case durationType:
		return KindDuration, nullable
	case charType:
		return KindChar, nullable
	case bytesType:
		return KindBytes, nullable
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool, nullable
	case reflect.Int:
		return KindInt, nullable
	case reflect.Int8:
		return KindInt8, nullable
	case reflect.Int16:
		return KindInt16, nullable
	case reflect.Int32:
		return KindInt32, nullable
	case reflect.Int64:
		return KindInt64, nullable
	case reflect.Uint:
		return KindUint, nullable
	case reflect.Uint8:
		return KindUint8, nullable
	case reflect.Uint16:
		return KindUint16, nullable
	case reflect.Uint32:
		return KindUint32, nullable
	case reflect.Uint64:
		return KindUint64, nullable
	case reflect.Float32:
		return KindFloat32, nullable
	case reflect.Float64:
		return KindFloat64, nullable
	case reflect.String:
		if t != stringType {
			return KindEnum, nullable
		}
		return KindString, nullable
	case reflect.Complex64, reflect.Complex128, reflect.Uintptr, reflect.UnsafePointer:
		// The primitive set is closed; reaching here is a binder bug,
		// not a data error.
		panic(fmt.Sprintf("bind: unsupported primitive kind %s", t.Kind()))
	default:
		return KindUnknown, nullable
	}
}
