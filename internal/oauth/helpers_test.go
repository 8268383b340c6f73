package oauth

import (
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testSecret is 40 characters and free of weak patterns.
const testSecret = "k7Hq9vXz2LmPw4Rt8YbNc6Jd3FgSa5Ue1Io0Ky7T"

func fixedNow() time.Time {
	return time.UnixMilli(1_700_000_000_000)
}

type tokenReply struct {
	status int
	body   string
}

type recordedRequest struct {
	path        string
	contentType string
	form        url.Values
}

// tokenServer is a fake instance token endpoint that records every request.
type tokenServer struct {
	*httptest.Server

	mu       sync.Mutex
	reply    tokenReply
	recorded []recordedRequest
}

func newTokenServer(t *testing.T, reply tokenReply) *tokenServer {
	t.Helper()

	ts := &tokenServer{reply: reply}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		ts.mu.Lock()
		ts.recorded = append(ts.recorded, recordedRequest{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			form:        r.PostForm,
		})
		reply := ts.reply
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.status)
		_, _ = w.Write([]byte(reply.body))
	}))
	t.Cleanup(ts.Close)

	return ts
}

func (ts *tokenServer) setReply(reply tokenReply) {
	ts.mu.Lock()
	ts.reply = reply
	ts.mu.Unlock()
}

func (ts *tokenServer) requests() []recordedRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]recordedRequest(nil), ts.recorded...)
}

func (ts *tokenServer) creds() ClientCredentials {
	return ClientCredentials{
		Instance:     ts.URL,
		ClientID:     "cid",
		ClientSecret: testSecret,
	}
}

// httpClient routes every request to the fake server, whatever the host,
// so flows can target real-looking instance URLs.
func (ts *tokenServer) httpClient() *http.Client {
	target, _ := url.Parse(ts.URL)
	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: &rewriteTransport{target: target},
	}
}

type rewriteTransport struct {
	target *url.URL
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

// countingListen binds an ephemeral loopback port and counts binds.
type countingListen struct {
	calls atomic.Int32
	port  atomic.Int32
}

func (c *countingListen) listen(network, _ string) (net.Listener, error) {
	c.calls.Add(1)
	l, err := net.Listen(network, "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	c.port.Store(int32(l.Addr().(*net.TCPAddr).Port))
	return l, nil
}
