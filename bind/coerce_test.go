package bind

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample covers every semantic kind through the member-variable shape.
type sample struct {
	ID   int64
	B    bool
	I    int
	I16  int16
	I64  int64
	U32  uint32
	F32  float32
	F64  float64
	S    string
	Raw  []byte
	C    Char
	E    color
	T    time.Time
	D    time.Duration
	PI   *int64
	PS   *string
	PE   *color
	PT   *time.Time
}

var sampleColumns = columnsOf(
	"id", "b", "i", "i16", "i64", "u32", "f32", "f64",
	"s", "raw", "c", "e", "t", "d", "pi", "ps", "pe", "pt",
)

func bindSample(t *testing.T) *Set {
	t.Helper()
	b := &Binder{Log: func(...any) {}}
	set, err := b.Bind(reflect.TypeOf(sample{}), "id", sampleColumns)
	require.NoError(t, err)
	require.Len(t, set.All, len(sampleColumns))
	return set
}

// feed simulates the driver populating a scan destination.
func feed(t *testing.T, dest any, v any) {
	t.Helper()
	switch d := dest.(type) {
	case sql.Scanner:
		require.NoError(t, d.Scan(v))
	case *[]byte:
		if v == nil {
			*d = nil
		} else {
			*d = append([]byte(nil), v.([]byte)...)
		}
	case *any:
		*d = v
	default:
		t.Fatalf("unexpected destination type %T", dest)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	nick := "ada"
	seven := int64(7)
	tone := color("green")

	src := &sample{
		ID: 3, B: true, I: -4, I16: 12, I64: 1 << 40, U32: 9, F32: 1.5, F64: 2.25,
		S: "hello", Raw: []byte{0x1, 0x2}, C: 'x', E: "red", T: now, D: 3 * time.Second,
		PI: &seven, PS: &nick, PE: &tone, PT: &now,
	}
	set := bindSample(t)
	srcV := reflect.ValueOf(src)

	dst := &sample{}
	dstV := reflect.ValueOf(dst)
	for _, bd := range set.All {
		v, err := bd.Value(srcV)
		require.NoError(t, err, bd.Column.Name)
		d, assign := bd.Dest()
		feed(t, d, v)
		require.NoError(t, assign(dstV), bd.Column.Name)
	}
	assert.Equal(t, src, dst)
}

func TestRoundTripNulls(t *testing.T) {
	t.Parallel()

	set := bindSample(t)
	src := &sample{ID: 1}
	srcV := reflect.ValueOf(src)
	dst := &sample{}
	dstV := reflect.ValueOf(dst)

	for _, col := range []string{"pi", "ps", "pe", "pt"} {
		bd := set.ByColumn(col)
		v, err := bd.Value(srcV)
		require.NoError(t, err)
		assert.Nil(t, v, col)
		d, assign := bd.Dest()
		feed(t, d, nil)
		require.NoError(t, assign(dstV))
	}
	assert.Nil(t, dst.PI)
	assert.Nil(t, dst.PS)
	assert.Nil(t, dst.PE)
	assert.Nil(t, dst.PT)
}

func TestEnumSerialization(t *testing.T) {
	t.Parallel()

	set := bindSample(t)
	bd := set.ByColumn("e")

	v, err := bd.Value(reflect.ValueOf(&sample{E: "blue"}))
	require.NoError(t, err)
	assert.Equal(t, "blue", v)

	// Empty source yields no value rather than an error.
	dst := &sample{E: "stale"}
	d, assign := bd.Dest()
	feed(t, d, "")
	require.NoError(t, assign(reflect.ValueOf(dst)))
	assert.Equal(t, color(""), dst.E)
}

func TestCharSerialization(t *testing.T) {
	t.Parallel()

	set := bindSample(t)
	bd := set.ByColumn("c")

	v, err := bd.Value(reflect.ValueOf(&sample{C: 'q'}))
	require.NoError(t, err)
	assert.Equal(t, "q", v)

	// NUL serializes to the empty string and the empty string maps back
	// to the NUL sentinel.
	v, err = bd.Value(reflect.ValueOf(&sample{}))
	require.NoError(t, err)
	assert.Equal(t, "", v)

	dst := &sample{C: 'z'}
	d, assign := bd.Dest()
	feed(t, d, "")
	require.NoError(t, assign(reflect.ValueOf(dst)))
	assert.Equal(t, Char(0), dst.C)
}

func TestDurationSerialization(t *testing.T) {
	t.Parallel()

	set := bindSample(t)
	bd := set.ByColumn("d")

	v, err := bd.Value(reflect.ValueOf(&sample{D: time.Minute}))
	require.NoError(t, err)
	assert.Equal(t, int64(time.Minute), v)
}

func TestUnknownKindAssignment(t *testing.T) {
	t.Parallel()

	type holder struct {
		ID  int64
		Box widget
	}
	b := &Binder{Log: func(...any) {}}
	set, err := b.Bind(reflect.TypeOf(holder{}), "id", columnsOf("id", "box"))
	require.NoError(t, err)

	bd := set.ByColumn("box")
	assert.Equal(t, KindUnknown, bd.Kind)

	dst := &holder{}
	d, assign := bd.Dest()
	feed(t, d, widget{})
	require.NoError(t, assign(reflect.ValueOf(dst)))
}
