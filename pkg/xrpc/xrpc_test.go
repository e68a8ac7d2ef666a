package xrpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type linkArgs struct {
	RegionName string   `xrpc:"region_name"`
	Tags       []string `xrpc:"tags"`
	Payload    []byte   `xrpc:"payload"`
	internal   string
	Ignored    string `xrpc:"-"`
}

type linkReply struct {
	Result string   `xrpc:"result"`
	UUID   string   `xrpc:"uuid"`
	SizeX  string   `xrpc:"size_x"`
	Items  []string `xrpc:"items"`
	Data   []byte   `xrpc:"data"`
}

func TestEncodeCall(t *testing.T) {
	body, err := EncodeCall("link_region", linkArgs{
		RegionName: "Wright Plaza",
		Tags:       []string{"a", "b"},
		Payload:    []byte("hi"),
		internal:   "never",
		Ignored:    "never",
	})
	require.NoError(t, err)

	doc := string(body)
	require.Contains(t, doc, "<methodName>link_region</methodName>")
	require.Contains(t, doc, "<name>region_name</name>")
	require.Contains(t, doc, "<string>Wright Plaza</string>")
	require.Contains(t, doc, "<name>tags</name>")
	require.Contains(t, doc, "<base64>aGk=</base64>")
	require.NotContains(t, doc, "never", "untagged and dash-tagged fields stay off the wire")
}

func TestEncodeCall_NoArgs(t *testing.T) {
	body, err := EncodeCall("ping", nil)
	require.NoError(t, err)
	require.Contains(t, string(body), "<methodName>ping</methodName>")
	require.NotContains(t, string(body), "<param>")
}

func TestDecodeResponse_FullReply(t *testing.T) {
	doc := `<?xml version="1.0"?><methodResponse><params><param><value><struct>` +
		`<member><name>result</name><value><string>true</string></value></member>` +
		`<member><name>uuid</name><value><string>4a0e220e-a380-4a1a-b85b-10f9ee40b145</string></value></member>` +
		`<member><name>size_x</name><value><int>512</int></value></member>` +
		`<member><name>items</name><value><array><data>` +
		`<value><string>one</string></value><value><string>two</string></value>` +
		`</data></array></value></member>` +
		`<member><name>data</name><value><base64>aGVsbG8=</base64></value></member>` +
		`<member><name>surprise</name><value><string>skipped</string></value></member>` +
		`</struct></value></param></params></methodResponse>`

	var reply linkReply
	require.NoError(t, DecodeResponse([]byte(doc), &reply))
	require.Equal(t, "true", reply.Result)
	require.Equal(t, "4a0e220e-a380-4a1a-b85b-10f9ee40b145", reply.UUID)
	require.Equal(t, "512", reply.SizeX, "int-typed members fold back to raw text")
	require.Equal(t, []string{"one", "two"}, reply.Items)
	require.Equal(t, []byte("hello"), reply.Data)
}

func TestDecodeResponse_PartialReplyKeepsDefaults(t *testing.T) {
	doc := `<?xml version="1.0"?><methodResponse><params><param><value><struct>` +
		`<member><name>uuid</name><value><string>abc</string></value></member>` +
		`</struct></value></param></params></methodResponse>`

	reply := linkReply{SizeX: "256"}
	require.NoError(t, DecodeResponse([]byte(doc), &reply))
	require.Equal(t, "abc", reply.UUID)
	require.Equal(t, "256", reply.SizeX, "omitted members keep the caller's default")
	require.Empty(t, reply.Result)
}

func TestDecodeResponse_BareValueText(t *testing.T) {
	doc := `<?xml version="1.0"?><methodResponse><params><param><value><struct>` +
		`<member><name>result</name><value>true</value></member>` +
		`</struct></value></param></params></methodResponse>`

	var reply linkReply
	require.NoError(t, DecodeResponse([]byte(doc), &reply))
	require.Equal(t, "true", reply.Result)
}

func TestDecodeResponse_Fault(t *testing.T) {
	doc := `<?xml version="1.0"?><methodResponse><fault><value><struct>` +
		`<member><name>faultCode</name><value><int>4</int></value></member>` +
		`<member><name>faultString</name><value><string>region unknown</string></value></member>` +
		`</struct></value></fault></methodResponse>`

	var reply linkReply
	err := DecodeResponse([]byte(doc), &reply)

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	require.Equal(t, 4, fault.Code)
	require.Equal(t, "region unknown", fault.String)
}

func TestDecodeResponse_MalformedShapes(t *testing.T) {
	var reply linkReply

	require.Error(t, DecodeResponse([]byte("<not-xmlrpc"), &reply), "broken XML")
	require.Error(t, DecodeResponse([]byte(
		`<?xml version="1.0"?><methodResponse><params></params></methodResponse>`,
	), &reply), "no parameter")
	require.Error(t, DecodeResponse([]byte(
		`<?xml version="1.0"?><methodResponse><params><param><value><string>flat</string></value></param></params></methodResponse>`,
	), &reply), "parameter is not a struct")
}

func TestRoundTrip(t *testing.T) {
	body, err := EncodeCall("probe", linkArgs{RegionName: "Home", Tags: []string{"x"}})
	require.NoError(t, err)

	// The request and response grammar share the value layout; feed the
	// encoded param back through the decoder to pin both directions.
	response := []byte(
		`<?xml version="1.0"?><methodResponse><params><param><value><struct>` +
			`<member><name>result</name><value><string>ok</string></value></member>` +
			`</struct></value></param></params></methodResponse>`)

	var reply linkReply
	require.NoError(t, DecodeResponse(response, &reply))
	require.Equal(t, "ok", reply.Result)
	require.Contains(t, string(body), "Home")
}
