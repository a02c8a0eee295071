package clusterstats

// statusPath is appended to every host to form its status URL.
const statusPath = "/status"

// Endpoint is the resolved status URL of one host.
//
// Endpoint is immutable after creation via [NewEndpoint] or [BuildEndpoints].
type Endpoint struct {
	host string
	url  string
}

// Host returns the host identifier the endpoint was built from.
func (e Endpoint) Host() string {
	return e.host
}

// URL returns the status URL that is polled.
func (e Endpoint) URL() string {
	return e.url
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	return e.url
}

// NewEndpoint resolves a single host to its status endpoint.
//
// The host is not validated; a malformed host fails later, at fetch time, as
// a transport failure.
func NewEndpoint(host string) Endpoint {
	return Endpoint{host: host, url: StatusURL(host)}
}

// BuildEndpoints resolves hosts to endpoints, one per host, in input order.
// Duplicates are kept.
func BuildEndpoints(hosts []string) []Endpoint {
	endpoints := make([]Endpoint, len(hosts))
	for i, h := range hosts {
		endpoints[i] = NewEndpoint(h)
	}
	return endpoints
}

// StatusURL returns http://{host}/status.
func StatusURL(host string) string {
	return "http://" + host + statusPath
}
