package hypergate

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
)

// Canned XML-RPC bodies for the fake foreign grids the tests stand up.

func xmlValueString(v string) string {
	return "<string>" + v + "</string>"
}

func xmlValueBase64(v string) string {
	return "<base64>" + v + "</base64>"
}

func xmlValueArray(values ...string) string {
	var sb strings.Builder
	sb.WriteString("<array><data>")
	for _, v := range values {
		sb.WriteString("<value>")
		sb.WriteString(v)
		sb.WriteString("</value>")
	}
	sb.WriteString("</data></array>")
	return sb.String()
}

func xmlMember(name, value string) string {
	return "<member><name>" + name + "</name><value>" + value + "</value></member>"
}

func xmlStructResponse(members ...string) string {
	return `<?xml version="1.0"?><methodResponse><params><param><value><struct>` +
		strings.Join(members, "") +
		`</struct></value></param></params></methodResponse>`
}

func xmlFaultResponse(code int, faultString string) string {
	return fmt.Sprintf(`<?xml version="1.0"?><methodResponse><fault><value><struct>`+
		`<member><name>faultCode</name><value><int>%d</int></value></member>`+
		`<member><name>faultString</name><value><string>%s</string></value></member>`+
		`</struct></value></fault></methodResponse>`, code, faultString)
}

func xmlrpcServer(handler func(body string) string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(handler(string(body))))
	}))
}
