// Package signing implements the parameter protocol spoken with the 302.AI
// payment gateway: deterministic canonicalization of a parameter map,
// HMAC-SHA256 signing of the canonical string, and fail-closed verification
// with an optional replay window. Two independently written implementations
// must produce byte-identical canonical strings, so every ordering,
// encoding, and empty-value rule here is part of the wire contract.
package signing

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// TimestampKey is the reserved replay-protection field.
const TimestampKey = "timestamp"

// DefaultExcludeKeys are the slots the signature itself travels in. They are
// always removed before canonicalization, regardless of emptiness.
var DefaultExcludeKeys = []string{"sign", "signature"}

// Options adjust canonicalization for a single call.
type Options struct {
	// ExcludeKeys overrides DefaultExcludeKeys when non-nil.
	ExcludeKeys []string
	// Timestamp, when positive, is inserted under TimestampKey unless the
	// parameters already carry a non-empty timestamp of their own.
	Timestamp int64
}

// Canonicalize reduces params to the deterministic signing string: drop the
// excluded keys, drop empty values, inject the optional timestamp, sort the
// surviving keys, form-encode each key=value pair, and join with "&".
// Spaces encode as "+" (form convention); this is part of the wire contract
// and both sides of the integration must follow it. Empty input yields "".
func Canonicalize(params Params, opts Options) string {
	excluded := opts.ExcludeKeys
	if excluded == nil {
		excluded = DefaultExcludeKeys
	}
	drop := make(map[string]struct{}, len(excluded))
	for _, k := range excluded {
		drop[k] = struct{}{}
	}

	kept := make(map[string]string, len(params)+1)
	for k, v := range params {
		if _, skip := drop[k]; skip {
			continue
		}
		if v.IsEmpty() {
			continue
		}
		kept[k] = normalize(v)
	}
	if opts.Timestamp > 0 {
		if _, ok := kept[TimestampKey]; !ok {
			kept[TimestampKey] = strconv.FormatInt(opts.Timestamp, 10)
		}
	}
	if len(kept) == 0 {
		return ""
	}

	keys := make([]string, 0, len(kept))
	for k := range kept {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kept[k]))
	}
	return sb.String()
}

// normalize renders one non-empty value as its canonical text: scalars as
// their literal form, nested structures as compact key-sorted JSON.
func normalize(v Value) string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindObject, KindArray:
		var sb strings.Builder
		writeCanonicalJSON(&sb, v)
		return sb.String()
	}
	return ""
}

// writeCanonicalJSON serializes a nested structure compactly with object
// keys sorted at every depth, so structurally equal trees always produce
// the same bytes. Null object entries are dropped; null array elements are
// kept as "null" to preserve element positions. The top-level emptiness
// filter does not recurse, so nested empty objects and arrays stay as
// "{}" and "[]".
func writeCanonicalJSON(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindString:
		b, _ := json.Marshal(v.str)
		sb.Write(b)
	case KindNumber:
		if v.str == "" {
			sb.WriteByte('0')
			return
		}
		sb.WriteString(v.str)
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonicalJSON(sb, item)
		}
		sb.WriteByte(']')
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			if v.obj[k].kind == KindNull {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			sb.Write(kb)
			sb.WriteByte(':')
			writeCanonicalJSON(sb, v.obj[k])
		}
		sb.WriteByte('}')
	}
}
