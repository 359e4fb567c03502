package purbao

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lassnet/powerdash/internal/domain/energy"
)

const idField = "_id"

var weatherKeys = []string{
	energy.WeatherTemperature,
	energy.WeatherHumidity,
	energy.WeatherWindSpeed,
	energy.WeatherWindDir,
}

// number accepts JSON numbers, numeric strings and null. Null decodes to NaN;
// any other value, or a string that is not a finite number, is rejected.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = number(math.NaN())
		return nil
	}
	var v float64
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		v = parsed
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s is not a number", data)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s is not a finite number", data)
	}
	*n = number(v)
	return nil
}

// decodeObservations accepts either a list of records keyed by "_id" or an
// object keyed by time of day. With no fields every value except "_id" is
// decoded; otherwise only the named fields are kept and each must be present.
func decodeObservations(body []byte, fields []string) ([]energy.Observation, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	switch trimmed[0] {
	case '[':
		return decodeRecords(trimmed, fields)
	case '{':
		return decodeKeyed(trimmed, fields)
	default:
		return nil, fmt.Errorf("unexpected payload starting with %q", trimmed[0])
	}
}

func decodeRecords(body []byte, fields []string) ([]energy.Observation, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	out := make([]energy.Observation, 0, len(records))
	for _, rec := range records {
		var id string
		if raw, ok := rec[idField]; ok {
			if err := json.Unmarshal(raw, &id); err != nil {
				return nil, fmt.Errorf("record %s is not a string: %w", idField, err)
			}
		}
		values, err := decodeValues(rec, fields)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", id, err)
		}
		out = append(out, energy.Observation{TimeOfDay: id, Values: values})
	}
	return out, nil
}

func decodeKeyed(body []byte, fields []string) ([]energy.Observation, error) {
	var keyed map[string]map[string]json.RawMessage
	if err := json.Unmarshal(body, &keyed); err != nil {
		return nil, err
	}
	times := make([]string, 0, len(keyed))
	for k := range keyed {
		times = append(times, k)
	}
	sort.Strings(times)

	out := make([]energy.Observation, 0, len(keyed))
	for _, tod := range times {
		values, err := decodeValues(keyed[tod], fields)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", tod, err)
		}
		out = append(out, energy.Observation{TimeOfDay: tod, Values: values})
	}
	return out, nil
}

func decodeValues(raw map[string]json.RawMessage, fields []string) (map[string]float64, error) {
	if len(fields) == 0 {
		values := make(map[string]float64, len(raw))
		for key, value := range raw {
			if key == idField {
				continue
			}
			v, err := decodeNumber(key, value)
			if err != nil {
				return nil, err
			}
			values[key] = v
		}
		return values, nil
	}

	values := make(map[string]float64, len(fields))
	for _, key := range fields {
		value, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("field %q missing", key)
		}
		v, err := decodeNumber(key, value)
		if err != nil {
			return nil, err
		}
		values[key] = v
	}
	return values, nil
}

func decodeNumber(key string, raw json.RawMessage) (float64, error) {
	var n number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return float64(n), nil
}
