// Package xrpc encodes and decodes the legacy grid RPC convention:
// one XML method call carrying a single flat string-keyed struct, answered
// by another flat struct or an explicit fault.
//
// The wire format is owned by the federation of independently operated
// grids and cannot change; the decode side, however, is deliberately
// schema-first. Callers hand in one Go struct per remote method, tagged
// with `xrpc:"member_name"`, and every member the reply omits simply keeps
// the struct's default. Unknown members are skipped. Only a reply whose
// shape cannot be interpreted at all is an error.
//
// Supported field types mirror what the wire actually carries: `string`
// for every scalar (the convention types everything as strings, and the
// few int/boolean-typed values foreign implementations emit are folded
// back to their raw text), `[]string` for arrays and `[]byte` for base64
// payloads.
package xrpc

import (
	"encoding/xml"
	"fmt"
)

// TagKey is the struct tag key naming a field's wire member.
const TagKey = "xrpc"

// Fault is an explicit error answer from the remote endpoint. String is
// kept verbatim for operator logs.
type Fault struct {
	Code   int
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault %d: %s", f.Code, f.String)
}

type methodCall struct {
	XMLName    xml.Name   `xml:"methodCall"`
	MethodName string     `xml:"methodName"`
	Params     []paramXML `xml:"params>param"`
}

type methodResponse struct {
	XMLName xml.Name   `xml:"methodResponse"`
	Params  []paramXML `xml:"params>param"`
	Fault   *faultXML  `xml:"fault"`
}

type paramXML struct {
	Value valueXML `xml:"value"`
}

type faultXML struct {
	Value valueXML `xml:"value"`
}

type valueXML struct {
	String  *string    `xml:"string,omitempty"`
	Int     *string    `xml:"int,omitempty"`
	I4      *string    `xml:"i4,omitempty"`
	Boolean *string    `xml:"boolean,omitempty"`
	Double  *string    `xml:"double,omitempty"`
	Base64  *string    `xml:"base64,omitempty"`
	Struct  *structXML `xml:"struct,omitempty"`
	Array   *arrayXML  `xml:"array,omitempty"`

	// A bare <value>text</value> is legal on the wire.
	Raw string `xml:",chardata"`
}

type structXML struct {
	Members []memberXML `xml:"member"`
}

type memberXML struct {
	Name  string   `xml:"name"`
	Value valueXML `xml:"value"`
}

type arrayXML struct {
	Values []valueXML `xml:"data>value"`
}
