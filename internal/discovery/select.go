package discovery

import "strings"

// Reply is one datagram received during the collection window.
type Reply struct {
	Address string
	Body    string
}

// Markers are the substrings used to rank replies.
type Markers struct {
	Family     string
	Alternates []string
	Models     []string
}

// DefaultMarkers matches the device family and its soundbar models.
func DefaultMarkers() Markers {
	return Markers{
		Family:     "HEOS",
		Alternates: []string{"Denon", "DENON"},
		Models:     []string{"HEOS Bar", "HEOS_Bar"},
	}
}

// Select picks an address from replies in arrival order.
//
// The first reply carrying the family marker and a model marker wins. Failing
// that, the last reply carrying the family marker or an alternate is used.
func Select(replies []Reply, markers Markers) string {
	fallback := ""
	for _, reply := range replies {
		family := markers.Family != "" && strings.Contains(reply.Body, markers.Family)
		if family && containsAny(reply.Body, markers.Models) {
			return reply.Address
		}
		if family || containsAny(reply.Body, markers.Alternates) {
			fallback = reply.Address
		}
	}
	return fallback
}

func containsAny(body string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(body, needle) {
			return true
		}
	}
	return false
}

// SearchRequest renders the M-SEARCH request sent to host.
func SearchRequest(host, searchTarget string) string {
	return "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: " + host + "\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: 3\r\n" +
		"ST: " + searchTarget + "\r\n\r\n"
}
