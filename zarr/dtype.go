package zarr

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnsupportedDtype = errors.New("unsupported dtype")

// Dtype is a NumPy typestr such as "<f8": a byte order character, a basic
// type character and the size in bytes, optionally followed by datetime
// units in brackets ("<M8[ns]").
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

func ParseDtype(s string) (Dtype, error) {
	// some writers HTML escape the byte order
	s = strings.NewReplacer("&lt;", "<", "&gt;", ">").Replace(s)
	if len(s) < 3 {
		return Dtype{}, fmt.Errorf("%w: %q is too short", ErrUnsupportedDtype, s)
	}

	bo, err := ParseByteOrder(rune(s[0]))
	if err != nil {
		return Dtype{}, err
	}
	bt, err := ParseBasicType(rune(s[1]))
	if err != nil {
		return Dtype{}, err
	}

	size, units := s[2:], ""
	if i := strings.IndexByte(size, '['); i >= 0 {
		size, units = size[:i], size[i:]
	}
	n, err := strconv.Atoi(size)
	if err != nil {
		return Dtype{}, fmt.Errorf("%w: size of %q: %w", ErrUnsupportedDtype, s, err)
	}

	return Dtype{ByteOrder: bo, BasicType: bt, ByteSize: n, Units: units}, nil
}

func (dt Dtype) String() string {
	return fmt.Sprintf("%c%c%d%s", dt.ByteOrder, dt.BasicType, dt.ByteSize, dt.Units)
}

func (dt Dtype) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}
	*dt = t
	return nil
}

// Matches reports whether values of dt decode into values of o: basic type
// and size must agree, byte order may differ.
func (dt Dtype) Matches(o Dtype) bool {
	return dt.BasicType == o.BasicType && dt.ByteSize == o.ByteSize && dt.Units == o.Units
}

// DtypeOf returns the zarr data type of the Go element type T. Only fixed
// size types that encoding/binary can encode are supported; multi byte types
// are little-endian.
func DtypeOf[T any]() (Dtype, error) {
	var zero T
	var bt BasicType
	switch any(zero).(type) {
	case bool:
		bt = BTBoolean
	case int8, int16, int32, int64:
		bt = BTInteger
	case uint8, uint16, uint32, uint64:
		bt = BTUnsigned
	case float32, float64:
		bt = BTFloatingPoint
	case complex64, complex128:
		bt = BTComplex
	default:
		return Dtype{}, fmt.Errorf("%w: %T", ErrUnsupportedDtype, zero)
	}
	size := binary.Size(zero)
	bo := BOLittleEndian
	if size == 1 {
		bo = BONotRelevant
	}
	return Dtype{ByteOrder: bo, BasicType: bt, ByteSize: size}, nil
}

type ByteOrder rune

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

func ParseByteOrder(r rune) (ByteOrder, error) {
	switch o := ByteOrder(r); o {
	case BONotRelevant, BOLittleEndian, BOBigEndian:
		return o, nil
	}
	return 0, fmt.Errorf("%w: byte order %q", ErrUnsupportedDtype, r)
}

// Order returns the encoding/binary order for o. Single byte types have no
// order and encode identically either way.
func (o ByteOrder) Order() binary.ByteOrder {
	if o == BOBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

type BasicType rune

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTOther         BasicType = 'V'
)

var basicTypeNames = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
	BTComplex:       "complex",
	BTTimedelta:     "timedelta",
	BTDatetime:      "datetime",
	BTString:        "bytes",
	BTUnicode:       "unicode",
	BTOther:         "void",
}

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := basicTypeNames[t]; !ok {
		return t, fmt.Errorf("%w: basic type %q", ErrUnsupportedDtype, r)
	}
	return t, nil
}

func (bt BasicType) Human() string {
	return basicTypeNames[bt]
}

// StructuredType is the "dtype" of an array: a single Dtype, or a record of
// named fields. A field holds either a Dtype or nested fields, and may carry
// a sub-array shape.
//
//	"<f8"
//	[["x", "<f4"], ["rgb", "|u1", [3]], ["pos", [["lat", "<f8"], ["lon", "<f8"]]]]
type StructuredType struct {
	Fieldname string
	Dtype     Dtype
	Shape     []int
	Children  []StructuredType
}

var (
	_ json.Unmarshaler = (*StructuredType)(nil)
	_ json.Marshaler   = StructuredType{}
)

func ParseStructuredType(d interface{}) (StructuredType, error) {
	switch v := d.(type) {
	case string:
		dt, err := ParseDtype(v)
		if err != nil {
			return StructuredType{}, err
		}
		return StructuredType{Dtype: dt}, nil
	case []interface{}:
		fields, err := parseFields(v)
		if err != nil {
			return StructuredType{}, err
		}
		return StructuredType{Children: fields}, nil
	}
	return StructuredType{}, fmt.Errorf("%w: dtype of type %T", ErrUnsupportedDtype, d)
}

func parseFields(list []interface{}) ([]StructuredType, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: record without fields", ErrUnsupportedDtype)
	}
	fields := make([]StructuredType, len(list))
	for i, el := range list {
		f, err := parseField(el)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		fields[i] = f
	}
	return fields, nil
}

// parseField reads [name, type] or [name, type, shape].
func parseField(v interface{}) (StructuredType, error) {
	tuple, ok := v.([]interface{})
	if !ok || len(tuple) < 2 || len(tuple) > 3 {
		return StructuredType{}, fmt.Errorf("%w: field must be [name, type(, shape)], got %v", ErrUnsupportedDtype, v)
	}
	name, ok := tuple[0].(string)
	if !ok {
		return StructuredType{}, fmt.Errorf("%w: field name %v is not a string", ErrUnsupportedDtype, tuple[0])
	}

	f, err := ParseStructuredType(tuple[1])
	if err != nil {
		return StructuredType{}, fmt.Errorf("field %q: %w", name, err)
	}
	f.Fieldname = name

	if len(tuple) == 3 {
		dims, ok := tuple[2].([]interface{})
		if !ok {
			return StructuredType{}, fmt.Errorf("%w: shape of field %q is %v", ErrUnsupportedDtype, name, tuple[2])
		}
		f.Shape = make([]int, len(dims))
		for i, d := range dims {
			n, ok := d.(float64)
			if !ok || n < 0 || n != float64(int(n)) {
				return StructuredType{}, fmt.Errorf("%w: shape of field %q is %v", ErrUnsupportedDtype, name, tuple[2])
			}
			f.Shape[i] = int(n)
		}
	}
	return f, nil
}

func (st StructuredType) IsBasic() bool {
	return st.Fieldname == "" && st.Shape == nil && len(st.Children) == 0
}

// Element returns the Dtype every element of the array is stored as. A
// record with a single scalar field is laid out exactly like that field, so
// it has an element type as well; other records do not.
func (st StructuredType) Element() (Dtype, bool) {
	switch {
	case st.IsBasic():
		return st.Dtype, true
	case len(st.Children) == 1 && len(st.Children[0].Shape) == 0:
		f := st.Children[0]
		if len(f.Children) == 0 {
			return f.Dtype, true
		}
		return StructuredType{Children: f.Children}.Element()
	}
	return Dtype{}, false
}

func (st StructuredType) Human() string {
	if st.IsBasic() {
		return st.Dtype.BasicType.Human()
	}
	return "struct"
}

func (st StructuredType) String() string {
	if st.IsBasic() {
		return st.Dtype.String()
	}
	d, err := st.MarshalJSON()
	if err != nil {
		return "struct"
	}
	return string(d)
}

func (st StructuredType) MarshalJSON() ([]byte, error) {
	if st.IsBasic() {
		return st.Dtype.MarshalJSON()
	}
	fields := make([][]interface{}, len(st.Children))
	for i, f := range st.Children {
		tuple := []interface{}{f.Fieldname, f.Dtype}
		if len(f.Children) > 0 {
			tuple[1] = StructuredType{Children: f.Children}
		}
		if len(f.Shape) > 0 {
			tuple = append(tuple, f.Shape)
		}
		fields[i] = tuple
	}
	d, err := encodeJSON(fields)
	return bytes.TrimSpace(d), err
}

func (st *StructuredType) UnmarshalJSON(d []byte) error {
	var v interface{}
	if err := json.Unmarshal(d, &v); err != nil {
		return err
	}
	t, err := ParseStructuredType(v)
	if err != nil {
		return err
	}
	*st = t
	return nil
}
