package xrpc

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var errNotAStruct = errors.New("xrpc: reply target must be a pointer to a struct")

// DecodeResponse interprets one reply document into `reply`, a pointer to
// a tagged struct. An explicit remote fault comes back as `*Fault`; any
// reply whose shape cannot be interpreted is an ordinary error; members
// the reply omits keep the target's defaults and members the target does
// not know are skipped.
func DecodeResponse(data []byte, reply any) error {
	var parsed methodResponse
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("xrpc: not a method response: %w", err)
	}

	if parsed.Fault != nil {
		return decodeFault(&parsed.Fault.Value)
	}

	if len(parsed.Params) == 0 {
		return errors.New("xrpc: response carries no parameter")
	}

	rv := reflect.ValueOf(reply)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errNotAStruct
	}

	top := &parsed.Params[0].Value
	if top.Struct == nil {
		return errors.New("xrpc: response parameter is not a struct")
	}

	return decodeStruct(top.Struct, rv.Elem())
}

func decodeStruct(src *structXML, dst reflect.Value) error {
	fields := make(map[string]reflect.Value)
	rt := dst.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := field.Tag.Get(TagKey)
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		fields[name] = dst.Field(i)
	}

	for _, member := range src.Members {
		target, known := fields[member.Name]
		if !known {
			continue
		}
		if err := decodeValue(&member.Value, target); err != nil {
			return fmt.Errorf("xrpc: member %q: %w", member.Name, err)
		}
	}
	return nil
}

func decodeValue(src *valueXML, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.String:
		scalar, ok := src.scalar()
		if !ok {
			return errors.New("expected a scalar")
		}
		dst.SetString(scalar)
		return nil

	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			if src.Base64 == nil {
				// Some implementations type payloads as plain strings.
				scalar, ok := src.scalar()
				if !ok {
					return errors.New("expected base64 data")
				}
				decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(scalar))
				if err != nil {
					return fmt.Errorf("bad base64 payload: %w", err)
				}
				dst.SetBytes(decoded)
				return nil
			}
			decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(*src.Base64))
			if err != nil {
				return fmt.Errorf("bad base64 payload: %w", err)
			}
			dst.SetBytes(decoded)
			return nil
		}

		if src.Array == nil {
			return errors.New("expected an array")
		}
		out := reflect.MakeSlice(dst.Type(), len(src.Array.Values), len(src.Array.Values))
		for i := range src.Array.Values {
			if err := decodeValue(&src.Array.Values[i], out.Index(i)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Struct:
		if src.Struct == nil {
			return errors.New("expected a struct")
		}
		return decodeStruct(src.Struct, dst)

	default:
		return fmt.Errorf("unsupported kind %s", dst.Kind())
	}
}

func decodeFault(value *valueXML) error {
	fault := &Fault{}
	if value.Struct == nil {
		fault.String = strings.TrimSpace(value.Raw)
		return fault
	}
	for _, member := range value.Struct.Members {
		scalar, ok := member.Value.scalar()
		if !ok {
			continue
		}
		switch member.Name {
		case "faultCode":
			code, err := strconv.Atoi(strings.TrimSpace(scalar))
			if err == nil {
				fault.Code = code
			}
		case "faultString":
			fault.String = scalar
		}
	}
	return fault
}

// scalar flattens whichever scalar element the value carries back to its
// raw text, bare <value>text</value> included.
func (v *valueXML) scalar() (string, bool) {
	switch {
	case v.String != nil:
		return *v.String, true
	case v.Int != nil:
		return *v.Int, true
	case v.I4 != nil:
		return *v.I4, true
	case v.Boolean != nil:
		return *v.Boolean, true
	case v.Double != nil:
		return *v.Double, true
	case v.Base64 != nil:
		return *v.Base64, true
	case v.Struct != nil || v.Array != nil:
		return "", false
	default:
		return strings.TrimSpace(v.Raw), true
	}
}
