package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodePayload parses raw payload text. Blank input stands for
// DefaultPayload. Errors wrap ErrMalformedPayload or ErrTypeCoercion.
func DecodePayload(raw []byte) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return DefaultPayload(), nil
	}
	if isNull(raw) {
		return Payload{}, fmt.Errorf("%w: payload must be a JSON object", ErrMalformedPayload)
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		if errors.Is(err, ErrMalformedPayload) || errors.Is(err, ErrTypeCoercion) {
			return Payload{}, err
		}
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p, nil
}

// UnmarshalJSON keeps the difference between absent and present fields,
// which decides whether totals fall back to derived values.
func (p *Payload) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("%w: payload must be a JSON object", ErrMalformedPayload)
	}

	p.Rows = []AttendanceRow{}
	p.Totals = Totals{}

	if raw, ok := fields["rows"]; ok {
		var items []json.RawMessage
		if isNull(raw) || json.Unmarshal(raw, &items) != nil {
			return fmt.Errorf("%w: rows must be an array", ErrMalformedPayload)
		}
		p.Rows = make([]AttendanceRow, 0, len(items))
		for i, item := range items {
			row, err := decodeRow(i, item)
			if err != nil {
				return err
			}
			p.Rows = append(p.Rows, row)
		}
	}

	if raw, ok := fields["totals"]; ok {
		totals, err := decodeTotals(raw)
		if err != nil {
			return err
		}
		p.Totals = totals
	}

	return nil
}

func decodeRow(index int, raw json.RawMessage) (AttendanceRow, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return AttendanceRow{}, fmt.Errorf("%w: rows[%d] must be an object", ErrMalformedPayload, index)
	}

	var row AttendanceRow
	if v, ok := fields["username"]; ok {
		if row.Username, err = coerceText(fmt.Sprintf("rows[%d].username", index), v); err != nil {
			return AttendanceRow{}, err
		}
		row.falsyUsername = isFalsyScalar(v)
	}
	if v, ok := fields["date"]; ok {
		if row.Date, err = coerceText(fmt.Sprintf("rows[%d].date", index), v); err != nil {
			return AttendanceRow{}, err
		}
	}
	if v, ok := fields["hours"]; ok {
		row.Hours = numericOrNil(v)
	}
	return row, nil
}

func decodeTotals(raw json.RawMessage) (Totals, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Totals{}, fmt.Errorf("%w: totals must be an object", ErrMalformedPayload)
	}

	var totals Totals
	if v, ok := fields["hours"]; ok {
		hours, err := coerceFloat("totals.hours", v)
		if err != nil {
			return Totals{}, err
		}
		totals.Hours = &hours
	}
	if v, ok := fields["records"]; ok {
		records, err := coerceInt("totals.records", v)
		if err != nil {
			return Totals{}, err
		}
		totals.Records = &records
	}
	if v, ok := fields["users"]; ok {
		users, err := coerceInt("totals.users", v)
		if err != nil {
			return Totals{}, err
		}
		totals.Users = &users
	}
	return totals, nil
}

func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	if isNull(raw) {
		return nil, errors.New("null object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// isFalsyScalar reports zero numbers and false.
func isFalsyScalar(raw []byte) bool {
	v, err := decodeValue(raw)
	if err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

func coercionError(field, expected string, got any) error {
	return fmt.Errorf("%w: %s: expected %s, got %s", ErrTypeCoercion, field, expected, describe(got))
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number " + t.String()
	case string:
		return strconv.Quote(t)
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// numericOrNil returns the value only when it is a finite JSON number.
func numericOrNil(raw []byte) *float64 {
	v, err := decodeValue(raw)
	if err != nil {
		return nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

func coerceText(field string, raw []byte) (*string, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, field, err)
	}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &t, nil
	case json.Number:
		s := t.String()
		return &s, nil
	case bool:
		s := strconv.FormatBool(t)
		return &s, nil
	default:
		return nil, coercionError(field, "text", v)
	}
}

func coerceFloat(field string, raw []byte) (float64, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, field, err)
	}

	var f float64
	switch t := v.(type) {
	case json.Number:
		if f, err = t.Float64(); err != nil {
			return 0, coercionError(field, "finite number", v)
		}
	case bool:
		if t {
			f = 1
		}
	case string:
		if f, err = strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
			return 0, coercionError(field, "number", v)
		}
	default:
		return 0, coercionError(field, "number", v)
	}

	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, coercionError(field, "finite number", v)
	}
	return f, nil
}

func coerceInt(field string, raw []byte) (int, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, field, err)
	}

	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
			return 0, coercionError(field, "integer", v)
		}
		return int(math.Trunc(f)), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, coercionError(field, "integer", v)
		}
		return i, nil
	default:
		return 0, coercionError(field, "integer", v)
	}
}
