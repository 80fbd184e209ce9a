// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tsn-tools/tsnctl/lib/codec"
	"github.com/tsn-tools/tsnctl/lib/schema"
)

// CBOR tags used by the value codec. Tag 4 is the standard decimal
// fraction; 44 and 45 disambiguate identityref and enumeration values
// inside unions, where the bare integer would be ambiguous.
const (
	tagDecimalFraction = 4
	tagUnionIdentity   = 44
	tagUnionEnum       = 45
)

// decimalString is a decode-side decimal64 value carried as its exact
// textual form, so "3.14" never detours through binary floating point
// on its way back to YAML.
type decimalString string

// valueCodec encodes and decodes scalar values according to their
// YANG type. It holds no state beyond the immutable tables and a
// logger for unknown-type warnings.
type valueCodec struct {
	tables *schema.Tables
	logger *slog.Logger
}

// encode converts a YAML scalar into its CBOR-ready representation
// under the given type. path is the node's canonical stripped path,
// used in diagnostics.
func (c *valueCodec) encode(path string, info *schema.TypeInfo, value any) (any, error) {
	if info == nil {
		info = &schema.TypeInfo{Kind: schema.KindUnknown}
	}
	switch info.Kind {
	case schema.KindBoolean:
		if boolean, ok := value.(bool); ok {
			return boolean, nil
		}
		if text, ok := value.(string); ok {
			if boolean, err := strconv.ParseBool(text); err == nil {
				return boolean, nil
			}
		}
		return nil, &ValueError{Path: path, Value: value, Reason: "not a boolean"}

	case schema.KindString, schema.KindLeafref:
		// Leafrefs pass through as written; the referenced leaf's
		// representation is the operator's responsibility.
		if text, ok := value.(string); ok {
			return text, nil
		}
		return fmt.Sprint(value), nil

	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64:
		number, ok := toInt64(value)
		if !ok {
			return nil, &ValueError{Path: path, Value: value, Reason: "not an integer"}
		}
		return number, nil

	case schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		number, ok := toUint64(value)
		if !ok {
			return nil, &ValueError{Path: path, Value: value, Reason: "not an unsigned integer"}
		}
		return number, nil

	case schema.KindEnumeration:
		if name, ok := value.(string); ok {
			if enumValue, ok := info.EnumNameToValue[name]; ok {
				return enumValue, nil
			}
			return nil, &EnumError{Path: path, Value: name}
		}
		// Numeric input is accepted when it names a known member.
		if number, ok := toInt64(value); ok {
			if _, known := info.EnumValueToName[number]; known {
				return number, nil
			}
		}
		return nil, &EnumError{Path: path, Value: value}

	case schema.KindIdentityref:
		name, ok := value.(string)
		if !ok {
			return nil, &IdentityError{Path: path, Value: value}
		}
		if sid, ok := c.tables.Tree.IdentityToSid[name]; ok {
			return uint64(sid), nil
		}
		return nil, &IdentityError{Path: path, Value: name}

	case schema.KindDecimal64:
		mantissa, err := decimalMantissa(path, value, info.FractionDigits)
		if err != nil {
			return nil, err
		}
		return codec.Tag{
			Number:  tagDecimalFraction,
			Content: []any{int64(-info.FractionDigits), mantissa},
		}, nil

	case schema.KindUnion:
		for _, member := range info.Members {
			encoded, err := c.encode(path, member, value)
			if err != nil {
				continue
			}
			switch member.Kind {
			case schema.KindEnumeration:
				return codec.Tag{Number: tagUnionEnum, Content: encoded}, nil
			case schema.KindIdentityref:
				return codec.Tag{Number: tagUnionIdentity, Content: encoded}, nil
			}
			return encoded, nil
		}
		return nil, &ValueError{Path: path, Value: value, Reason: "no union member accepts the value"}

	case schema.KindBits:
		names, err := bitNames(path, value)
		if err != nil {
			return nil, err
		}
		positions := make([]uint64, 0, len(names))
		for _, name := range names {
			position, ok := info.BitNameToPosition[name]
			if !ok {
				return nil, &ValueError{Path: path, Value: name, Reason: "not a declared bit"}
			}
			positions = append(positions, position)
		}
		sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
		return positions, nil

	case schema.KindBinary:
		text, ok := value.(string)
		if !ok {
			return nil, &ValueError{Path: path, Value: value, Reason: "binary values are base64 strings"}
		}
		raw, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, &ValueError{Path: path, Value: text, Reason: "invalid base64"}
		}
		return raw, nil

	case schema.KindEmpty:
		return nil, nil

	default:
		c.logger.Warn("unknown type, encoding as string", "path", path)
		if text, ok := value.(string); ok {
			return text, nil
		}
		return fmt.Sprint(value), nil
	}
}

// decode converts a CBOR value back into its YAML representation
// under the given type.
func (c *valueCodec) decode(path string, info *schema.TypeInfo, value any) (any, error) {
	if info == nil {
		info = &schema.TypeInfo{Kind: schema.KindUnknown}
	}
	switch info.Kind {
	case schema.KindBoolean, schema.KindString, schema.KindLeafref:
		return value, nil

	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64:
		if number, ok := toInt64(value); ok {
			return number, nil
		}
		return value, nil

	case schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		if number, ok := toUint64(value); ok {
			return number, nil
		}
		return value, nil

	case schema.KindEnumeration:
		number, ok := toInt64(value)
		if !ok {
			return nil, &EnumError{Path: path, Value: value}
		}
		name, ok := info.EnumValueToName[number]
		if !ok {
			return nil, &EnumError{Path: path, Value: number}
		}
		return name, nil

	case schema.KindIdentityref:
		number, ok := toUint64(value)
		if !ok {
			return nil, &IdentityError{Path: path, Value: value}
		}
		name, ok := c.tables.Tree.SidToIdentity[schema.SID(number)]
		if !ok {
			return nil, &IdentityError{Path: path, Value: number}
		}
		return name, nil

	case schema.KindDecimal64:
		tag, ok := value.(codec.Tag)
		if !ok || tag.Number != tagDecimalFraction {
			return nil, &ValueError{Path: path, Value: value, Reason: "expected a decimal fraction tag"}
		}
		return decodeDecimalFraction(path, tag.Content)

	case schema.KindUnion:
		if tag, ok := value.(codec.Tag); ok {
			switch tag.Number {
			case tagUnionIdentity:
				return c.decode(path, &schema.TypeInfo{Kind: schema.KindIdentityref}, tag.Content)
			case tagUnionEnum:
				for _, member := range info.Members {
					if member.Kind == schema.KindEnumeration {
						return c.decode(path, member, tag.Content)
					}
				}
				return nil, &ValueError{Path: path, Value: tag.Content, Reason: "enum-tagged value in a union with no enum member"}
			}
		}
		for _, member := range info.Members {
			decoded, err := c.decode(path, member, value)
			if err == nil {
				return decoded, nil
			}
		}
		return nil, &ValueError{Path: path, Value: value, Reason: "no union member accepts the value"}

	case schema.KindBits:
		items, ok := value.([]any)
		if !ok {
			return nil, &ValueError{Path: path, Value: value, Reason: "expected a bit position array"}
		}
		positionToName := make(map[uint64]string, len(info.BitNameToPosition))
		for name, position := range info.BitNameToPosition {
			positionToName[position] = name
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			position, ok := toUint64(item)
			if !ok {
				return nil, &ValueError{Path: path, Value: item, Reason: "bit positions are unsigned integers"}
			}
			name, ok := positionToName[position]
			if !ok {
				return nil, &ValueError{Path: path, Value: position, Reason: "not a declared bit position"}
			}
			names = append(names, name)
		}
		return strings.Join(names, " "), nil

	case schema.KindBinary:
		raw, ok := value.([]byte)
		if !ok {
			return nil, &ValueError{Path: path, Value: value, Reason: "expected a byte string"}
		}
		return base64.StdEncoding.EncodeToString(raw), nil

	case schema.KindEmpty:
		return nil, nil

	default:
		if text, ok := value.(string); ok {
			return text, nil
		}
		return value, nil
	}
}

// decimalMantissa scales a YAML number to its decimal64 mantissa.
// Integer input is scaled exactly; float input, and string input
// parsed as a float, rounds to the nearest mantissa.
func decimalMantissa(path string, value any, fractionDigits int) (int64, error) {
	switch number := value.(type) {
	case int:
		return scaleInt(int64(number), fractionDigits), nil
	case int64:
		return scaleInt(number, fractionDigits), nil
	case uint64:
		return scaleInt(int64(number), fractionDigits), nil
	case float64:
		scaled := number * math.Pow10(fractionDigits)
		return int64(math.Round(scaled)), nil
	case string:
		parsed, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, &ValueError{Path: path, Value: value, Reason: "not a decimal number"}
		}
		return int64(math.Round(parsed * math.Pow10(fractionDigits))), nil
	default:
		return 0, &ValueError{Path: path, Value: value, Reason: "not a decimal number"}
	}
}

func scaleInt(value int64, fractionDigits int) int64 {
	for range fractionDigits {
		value *= 10
	}
	return value
}

// decodeDecimalFraction reconstructs mantissa × 10^exponent as exact
// decimal text, or as an int64 when the exponent is not negative.
func decodeDecimalFraction(path string, content any) (any, error) {
	parts, ok := content.([]any)
	if !ok || len(parts) != 2 {
		return nil, &ValueError{Path: path, Value: content, Reason: "decimal fraction must be [exponent, mantissa]"}
	}
	exponent, ok := toInt64(parts[0])
	if !ok {
		return nil, &ValueError{Path: path, Value: parts[0], Reason: "decimal exponent is not an integer"}
	}
	mantissa, ok := toInt64(parts[1])
	if !ok {
		return nil, &ValueError{Path: path, Value: parts[1], Reason: "decimal mantissa is not an integer"}
	}

	if exponent >= 0 {
		text := strconv.FormatInt(mantissa, 10) + strings.Repeat("0", int(exponent))
		result, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, &ValueError{Path: path, Value: content, Reason: "decimal overflows int64"}
		}
		return result, nil
	}

	negative := mantissa < 0
	digits := strconv.FormatInt(mantissa, 10)
	if negative {
		digits = digits[1:]
	}
	places := int(-exponent)
	for len(digits) <= places {
		digits = "0" + digits
	}
	point := len(digits) - places
	text := digits[:point] + "." + digits[point:]
	if negative {
		text = "-" + text
	}
	return decimalString(text), nil
}

// bitNames accepts either a space-separated string or a YAML sequence
// of bit names.
func bitNames(path string, value any) ([]string, error) {
	switch typed := value.(type) {
	case string:
		return strings.Fields(typed), nil
	case []any:
		names := make([]string, 0, len(typed))
		for _, item := range typed {
			name, ok := item.(string)
			if !ok {
				return nil, &ValueError{Path: path, Value: item, Reason: "bit names are strings"}
			}
			names = append(names, name)
		}
		return names, nil
	default:
		return nil, &ValueError{Path: path, Value: value, Reason: "bits value must be names"}
	}
}

func toInt64(value any) (int64, bool) {
	switch number := value.(type) {
	case int:
		return int64(number), true
	case int8:
		return int64(number), true
	case int16:
		return int64(number), true
	case int32:
		return int64(number), true
	case int64:
		return number, true
	case uint64:
		if number > math.MaxInt64 {
			return 0, false
		}
		return int64(number), true
	case float64:
		if number != math.Trunc(number) {
			return 0, false
		}
		return int64(number), true
	default:
		return 0, false
	}
}

func toUint64(value any) (uint64, bool) {
	switch number := value.(type) {
	case int:
		if number < 0 {
			return 0, false
		}
		return uint64(number), true
	case int64:
		if number < 0 {
			return 0, false
		}
		return uint64(number), true
	case uint64:
		return number, true
	case float64:
		if number < 0 || number != math.Trunc(number) {
			return 0, false
		}
		return uint64(number), true
	default:
		return 0, false
	}
}
