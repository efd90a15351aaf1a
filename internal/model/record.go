package model

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Record is an opaque JSON value returned by the campaign API. Fields are
// looked up by gjson path; several paths can be given as fallbacks because
// the API is inconsistent about names (campaign_name vs name, ...).
type Record struct {
	gjson.Result
}

// Entry is one key/value pair of an object record.
type Entry struct {
	Key   string
	Value Record
}

// ParseRecord wraps raw JSON bytes.
func ParseRecord(b []byte) Record {
	return Record{gjson.ParseBytes(b)}
}

// RecordOf wraps a raw JSON string.
func RecordOf(raw string) Record {
	return Record{gjson.Parse(raw)}
}

// Get returns the value at path.
func (r Record) Get(path string) Record {
	return Record{r.Result.Get(path)}
}

// Has reports whether path resolves to a non-null value.
func (r Record) Has(path string) bool {
	v := r.Result.Get(path)
	return v.Exists() && v.Type != gjson.Null
}

// Str returns the first non-empty string found at paths.
func (r Record) Str(paths ...string) string {
	for _, p := range paths {
		v := r.Result.Get(p)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

// StrOr is Str with a fallback for the all-empty case.
func (r Record) StrOr(fallback string, paths ...string) string {
	if s := r.Str(paths...); s != "" {
		return s
	}
	return fallback
}

// Float returns the first numeric value found at paths.
func (r Record) Float(paths ...string) (float64, bool) {
	for _, p := range paths {
		v := r.Result.Get(p)
		switch v.Type {
		case gjson.Number:
			return v.Float(), true
		case gjson.String:
			if f := gjson.Parse(strings.TrimSpace(v.Str)); f.Type == gjson.Number {
				return f.Float(), true
			}
		}
	}
	return 0, false
}

// Int returns the first numeric value found at paths as an int64.
func (r Record) Int(paths ...string) (int64, bool) {
	f, ok := r.Float(paths...)
	return int64(f), ok
}

// Bool reports the truthiness of the value at path.
func (r Record) Bool(path string) bool {
	return r.Result.Get(path).Bool()
}

// ID returns the record id as text, checking the usual id fields.
func (r Record) ID(paths ...string) string {
	if len(paths) == 0 {
		paths = []string{"id"}
	}
	return r.Str(paths...)
}

// List returns the elements of a list response. A bare array is returned as
// is; an object is searched for the first key holding an array. Anything else
// yields an empty list.
func (r Record) List(keys ...string) []Record {
	if r.IsArray() {
		return wrap(r.Array())
	}
	if !r.IsObject() {
		return nil
	}
	for _, k := range keys {
		v := r.Result.Get(k)
		if v.IsArray() {
			return wrap(v.Array())
		}
	}
	return nil
}

// Entries returns the key/value pairs of an object record in document order.
func (r Record) Entries() []Entry {
	if !r.IsObject() {
		return nil
	}
	var out []Entry
	r.ForEach(func(k, v gjson.Result) bool {
		out = append(out, Entry{Key: k.String(), Value: Record{v}})
		return true
	})
	return out
}

// Empty reports whether the record carries no data at all.
func (r Record) Empty() bool {
	return !r.Exists() || r.Type == gjson.Null
}

func wrap(items []gjson.Result) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = Record{it}
	}
	return out
}
