// Package codec converts encoded records to and from nested values.
//
// JSON objects keep their key order, which the host schema depends on; the
// standard map-based decoding would lose it, so records are decoded from the
// token stream instead.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/solatis/schemamend/internal/types"
)

// Type tags assigned to decoded JSON scalars.
const (
	TagString  = "string"
	TagBigint  = "bigint"
	TagDouble  = "double"
	TagBoolean = "boolean"
)

// DecodeJSON decodes one JSON document into a Value.
// Integer literals that fit int64 become bigint; numbers written with a
// fraction or exponent, or out of range, become double.
// Duplicate keys keep their first position and their last value.
func DecodeJSON(data []byte) (types.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return types.Value{}, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return types.Value{}, fmt.Errorf("decode json: trailing data after document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (types.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return types.Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return types.Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return types.Prim(TagString, t), nil
	case json.Number:
		return numberValue(t)
	case bool:
		return types.Prim(TagBoolean, t), nil
	case nil:
		return types.Null(""), nil
	default:
		return types.Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (types.Value, error) {
	var fields []types.Field
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return types.Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return types.Value{}, fmt.Errorf("object key %v is not a string", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return types.Value{}, err
		}
		if i, dup := index[key]; dup {
			fields[i].Value = val
			continue
		}
		index[key] = len(fields)
		fields = append(fields, types.F(key, val))
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return types.Value{}, err
	}
	return types.Struct(fields...), nil
}

func decodeArray(dec *json.Decoder) (types.Value, error) {
	var elems []types.Value
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return types.Value{}, err
		}
		elems = append(elems, v)
	}
	if _, err := dec.Token(); err != nil {
		return types.Value{}, err
	}
	return types.Array(elems...), nil
}

func numberValue(n json.Number) (types.Value, error) {
	if i, err := n.Int64(); err == nil {
		return types.Prim(TagBigint, i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return types.Value{}, fmt.Errorf("number %s: %w", n, err)
	}
	return types.Prim(TagDouble, f), nil
}

// EncodeJSON encodes v as compact JSON with struct fields in order.
// NaN and infinite doubles have no JSON form and are written as null.
func EncodeJSON(v types.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v types.Value) error {
	switch v.Kind() {
	case types.KindStruct:
		buf.WriteByte('{')
		for i := 0; i < v.NumFields(); i++ {
			f := v.FieldAt(i)
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Name)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := encodeValue(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case types.KindArray:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, v.Index(i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	switch d := v.Data().(type) {
	case nil:
		buf.WriteString("null")
	case int64:
		buf.WriteString(strconv.FormatInt(d, 10))
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			buf.WriteString("null")
			return nil
		}
		b, err := json.Marshal(d)
		if err != nil {
			return err
		}
		buf.Write(b)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode %s primitive: %w", v.Type(), err)
		}
		buf.Write(b)
	}
	return nil
}
