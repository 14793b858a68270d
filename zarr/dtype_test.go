package zarr

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDtype(t *testing.T) {
	cases := []struct {
		in    string
		order ByteOrder
		bt    BasicType
		size  int
		units string
	}{
		{"<f8", BOLittleEndian, BTFloatingPoint, 8, ""},
		{">i4", BOBigEndian, BTInteger, 4, ""},
		{"|b1", BONotRelevant, BTBoolean, 1, ""},
		{"&lt;u2", BOLittleEndian, BTUnsigned, 2, ""},
		{"<M8[ns]", BOLittleEndian, BTDatetime, 8, "[ns]"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			dt, err := ParseDtype(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.order, dt.ByteOrder)
			assert.Equal(t, c.bt, dt.BasicType)
			assert.Equal(t, c.size, dt.ByteSize)
			assert.Equal(t, c.units, dt.Units)
		})
	}

	for _, bad := range []string{"<f", "?f8", "<x8", "<fA"} {
		_, err := ParseDtype(bad)
		assert.Error(t, err, bad)
	}
}

func TestDtypeOf(t *testing.T) {
	check := func(want string, got Dtype, err error) {
		t.Helper()
		require.NoError(t, err)
		assert.Equal(t, want, got.String())
	}
	dt, err := DtypeOf[float64]()
	check("<f8", dt, err)
	dt, err = DtypeOf[float32]()
	check("<f4", dt, err)
	dt, err = DtypeOf[int32]()
	check("<i4", dt, err)
	dt, err = DtypeOf[uint16]()
	check("<u2", dt, err)
	dt, err = DtypeOf[int8]()
	check("|i1", dt, err)
	dt, err = DtypeOf[bool]()
	check("|b1", dt, err)
	dt, err = DtypeOf[complex128]()
	check("<c16", dt, err)

	_, err = DtypeOf[int]()
	assert.ErrorIs(t, err, ErrUnsupportedDtype)
	_, err = DtypeOf[string]()
	assert.ErrorIs(t, err, ErrUnsupportedDtype)
}

func TestDtypeMatches(t *testing.T) {
	le, err := ParseDtype("<i4")
	require.NoError(t, err)
	be, err := ParseDtype(">i4")
	require.NoError(t, err)
	u, err := ParseDtype("<u4")
	require.NoError(t, err)

	assert.True(t, le.Matches(be))
	assert.False(t, le.Matches(u))
	assert.Equal(t, binary.ByteOrder(binary.BigEndian), be.ByteOrder.Order())
	assert.Equal(t, binary.ByteOrder(binary.LittleEndian), le.ByteOrder.Order())
}

func TestStructuredType(t *testing.T) {
	st := StructuredType{}
	require.NoError(t, json.Unmarshal([]byte(`[["r", "|u1"], ["g", "|u1"], ["b", "|u1"]]`), &st))
	assert.False(t, st.IsBasic())
	assert.Equal(t, "struct", st.Human())
	require.Len(t, st.Children, 3)
	assert.Equal(t, "g", st.Children[1].Fieldname)

	basic := StructuredType{}
	require.NoError(t, json.Unmarshal([]byte(`"<f4"`), &basic))
	assert.True(t, basic.IsBasic())
	assert.Equal(t, "float", basic.Human())

	d, err := json.Marshal(basic)
	require.NoError(t, err)
	assert.Equal(t, `"<f4"`, string(d))
}

func TestStructuredTypeFields(t *testing.T) {
	doc := `[["x","<f4"],["rgb","|u1",[3]],["pos",[["lat","<f8"],["lon","<f8"]]]]`
	st := StructuredType{}
	require.NoError(t, json.Unmarshal([]byte(doc), &st))
	require.Len(t, st.Children, 3)
	assert.Equal(t, []int{3}, st.Children[1].Shape)
	assert.Equal(t, "pos", st.Children[2].Fieldname)
	require.Len(t, st.Children[2].Children, 2)
	assert.Equal(t, "lon", st.Children[2].Children[1].Fieldname)

	_, ok := st.Element()
	assert.False(t, ok)

	d, err := json.Marshal(st)
	require.NoError(t, err)
	again := StructuredType{}
	require.NoError(t, json.Unmarshal(d, &again))
	assert.Equal(t, st, again)

	for _, bad := range []string{`[]`, `[["x"]]`, `[[1, "<f4"]]`, `[["x", "<f4", 3]]`, `[["x", "<f4", [1.5]]]`, `7`} {
		assert.Error(t, json.Unmarshal([]byte(bad), &StructuredType{}), bad)
	}
}

func TestStructuredTypeElement(t *testing.T) {
	cases := []struct {
		doc  string
		want string
		ok   bool
	}{
		{`"<i2"`, "<i2", true},
		{`[["v", "<i2"]]`, "<i2", true},
		{`[["outer", [["inner", ">f8"]]]]`, ">f8", true},
		{`[["v", "<i2", [2]]]`, "", false},
		{`[["a", "<i2"], ["b", "<i2"]]`, "", false},
	}
	for _, c := range cases {
		st := StructuredType{}
		require.NoError(t, json.Unmarshal([]byte(c.doc), &st), c.doc)
		dt, ok := st.Element()
		assert.Equal(t, c.ok, ok, c.doc)
		if c.ok {
			assert.Equal(t, c.want, dt.String(), c.doc)
		}
	}
}
