// Package types provides the runtime value model shared by every sqlkit layer.
package types

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindUNumber
	KindReal
	KindString
	KindDateTime
	KindNow
	KindNowAdd
)

var kindNames = map[Kind]string{
	KindNull:     "Null",
	KindBool:     "Bool",
	KindNumber:   "Number",
	KindUNumber:  "UNumber",
	KindReal:     "Real",
	KindString:   "String",
	KindDateTime: "DateTime",
	KindNow:      "Now",
	KindNowAdd:   "NowAdd",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a database value. The zero Value is Null.
//
// Nullable ("Opt") variants are represented by their scalar kind with
// null set; they compile and bind exactly like Null.
type Value struct {
	kind Kind
	null bool

	b bool
	i int64
	u uint64
	f float64
	s string
	t time.Time
}

// Null returns the SQL NULL value
func Null() Value { return Value{kind: KindNull, null: true} }

// Bool returns a boolean value
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// BoolOpt returns a nullable boolean value
func BoolOpt(v *bool) Value {
	if v == nil {
		return Value{kind: KindBool, null: true}
	}
	return Bool(*v)
}

// Number returns a signed integer value
func Number(v int64) Value { return Value{kind: KindNumber, i: v} }

// NumberOpt returns a nullable signed integer value
func NumberOpt(v *int64) Value {
	if v == nil {
		return Value{kind: KindNumber, null: true}
	}
	return Number(*v)
}

// UNumber returns an unsigned integer value
func UNumber(v uint64) Value { return Value{kind: KindUNumber, u: v} }

// UNumberOpt returns a nullable unsigned integer value
func UNumberOpt(v *uint64) Value {
	if v == nil {
		return Value{kind: KindUNumber, null: true}
	}
	return UNumber(*v)
}

// Real returns a floating point value
func Real(v float64) Value { return Value{kind: KindReal, f: v} }

// RealOpt returns a nullable floating point value
func RealOpt(v *float64) Value {
	if v == nil {
		return Value{kind: KindReal, null: true}
	}
	return Real(*v)
}

// String returns a text value
func String(v string) Value { return Value{kind: KindString, s: v} }

// StringOpt returns a nullable text value
func StringOpt(v *string) Value {
	if v == nil {
		return Value{kind: KindString, null: true}
	}
	return String(*v)
}

// DateTime returns a timestamp value
func DateTime(v time.Time) Value { return Value{kind: KindDateTime, t: v} }

// Now is evaluated by the server as the current timestamp
func Now() Value { return Value{kind: KindNow} }

// NowAdd is evaluated by the server as the current timestamp shifted by an
// SQLite date modifier such as "+1 day" or "-15 minutes".
func NowAdd(modifier string) Value { return Value{kind: KindNowAdd, s: modifier} }

// Kind returns the variant of the value
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is NULL, including empty Opt variants
func (v Value) IsNull() bool { return v.kind == KindNull || v.null }

// IsServerTime reports whether the value is computed by the server
func (v Value) IsServerTime() bool { return v.kind == KindNow || v.kind == KindNowAdd }

// AsBool returns the boolean payload
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool || v.null {
		return false, false
	}
	return v.b, true
}

// AsNumber returns the value as a signed integer. UNumber values that fit
// are converted.
func (v Value) AsNumber() (int64, bool) {
	if v.null {
		return 0, false
	}
	switch v.kind {
	case KindNumber:
		return v.i, true
	case KindUNumber:
		if v.u > 1<<63-1 {
			return 0, false
		}
		return int64(v.u), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// AsUNumber returns the unsigned payload
func (v Value) AsUNumber() (uint64, bool) {
	if v.null {
		return 0, false
	}
	switch v.kind {
	case KindUNumber:
		return v.u, true
	case KindNumber:
		if v.i < 0 {
			return 0, false
		}
		return uint64(v.i), true
	}
	return 0, false
}

// AsReal returns the floating point payload
func (v Value) AsReal() (float64, bool) {
	if v.kind != KindReal || v.null {
		return 0, false
	}
	return v.f, true
}

// AsString returns the text payload
func (v Value) AsString() (string, bool) {
	if v.kind != KindString || v.null {
		return "", false
	}
	return v.s, true
}

// AsDateTime returns the timestamp payload
func (v Value) AsDateTime() (time.Time, bool) {
	if v.kind != KindDateTime || v.null {
		return time.Time{}, false
	}
	return v.t, true
}

// Modifier returns the date modifier of a NowAdd value
func (v Value) Modifier() string {
	if v.kind != KindNowAdd {
		return ""
	}
	return v.s
}

// Equal reports whether two values hold the same variant and payload.
// All NULL representations are equal to each other, and a Number equals a
// UNumber of the same value.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	if v.kind != o.kind {
		return v.sameInteger(o)
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.i == o.i
	case KindUNumber:
		return v.u == o.u
	case KindReal:
		return v.f == o.f
	case KindString, KindNowAdd:
		return v.s == o.s
	case KindDateTime:
		return v.t.Equal(o.t)
	}
	return true
}

// sameInteger compares a Number with a UNumber by value. SQLite stores
// both as signed integers, so a UNumber reads back as a Number.
func (v Value) sameInteger(o Value) bool {
	switch {
	case v.kind == KindNumber && o.kind == KindUNumber:
		return v.i >= 0 && uint64(v.i) == o.u
	case v.kind == KindUNumber && o.kind == KindNumber:
		return o.i >= 0 && uint64(o.i) == v.u
	}
	return false
}

func (v Value) String() string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatInt(v.i, 10)
	case KindUNumber:
		return strconv.FormatUint(v.u, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindNow:
		return "NOW"
	case KindNowAdd:
		return "NOW " + v.s
	}
	return v.kind.String()
}

// Column is one named value of a Row
type Column struct {
	Name  string
	Value Value
}

// Row is an ordered set of columns as returned by the executed statement
type Row struct {
	Columns []Column
}

// Get returns the value of the named column
func (r Row) Get(name string) (Value, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Value, true
		}
	}
	return Value{}, false
}

// ID returns the "id" column, the conventional generated identifier
func (r Row) ID() (Value, bool) {
	return r.Get("id")
}

// Names returns the column names in result order
func (r Row) Names() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}
