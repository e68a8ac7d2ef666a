package xrpc

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"reflect"
)

// EncodeCall builds the document for one remote call. `args` is nil for
// parameterless methods, or a struct (or pointer to one) whose tagged
// fields become the single struct parameter's members, in field order.
func EncodeCall(method string, args any) ([]byte, error) {
	call := methodCall{MethodName: method}

	if args != nil {
		value, err := encodeValue(reflect.ValueOf(args))
		if err != nil {
			return nil, fmt.Errorf("xrpc: encoding %q args: %w", method, err)
		}
		call.Params = []paramXML{{Value: value}}
	}

	body, err := xml.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("xrpc: encoding %q: %w", method, err)
	}
	return append([]byte(xml.Header), body...), nil
}

func encodeValue(rv reflect.Value) (valueXML, error) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			s := ""
			return valueXML{String: &s}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		return valueXML{String: &s}, nil

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			encoded := base64.StdEncoding.EncodeToString(rv.Bytes())
			return valueXML{Base64: &encoded}, nil
		}
		arr := &arrayXML{}
		for i := 0; i < rv.Len(); i++ {
			item, err := encodeValue(rv.Index(i))
			if err != nil {
				return valueXML{}, err
			}
			arr.Values = append(arr.Values, item)
		}
		return valueXML{Array: arr}, nil

	case reflect.Struct:
		members := &structXML{}
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			name := field.Tag.Get(TagKey)
			if name == "" || name == "-" || !field.IsExported() {
				continue
			}
			item, err := encodeValue(rv.Field(i))
			if err != nil {
				return valueXML{}, err
			}
			members.Members = append(members.Members, memberXML{Name: name, Value: item})
		}
		return valueXML{Struct: members}, nil

	default:
		return valueXML{}, fmt.Errorf("unsupported kind %s", rv.Kind())
	}
}
