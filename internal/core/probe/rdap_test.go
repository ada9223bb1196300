package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/domainscout/domainscout/internal/core/registry"
)

func directoryFor(tld, serverURL string) registry.Directory {
	return &registry.Service{
		Static:    map[string]registry.Endpoint{},
		Overrides: map[string][]string{tld: {serverURL}},
	}
}

func TestRDAPProbeAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	prober := &RDAPProber{Directory: directoryFor("com", server.URL)}

	signal := prober.Probe(context.Background(), "example.com", "com")
	require.Equal(t, RDAPAvailable, signal.Outcome)
	require.Equal(t, http.StatusNotFound, signal.StatusCode)
}

func TestRDAPProbeTaken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rdap+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
  "objectClassName": "domain",
  "ldhName": "example.com",
  "status": ["active"]
}`))
	}))
	defer server.Close()

	prober := &RDAPProber{Directory: directoryFor("com", server.URL)}

	signal := prober.Probe(context.Background(), "example.com", "com")
	require.Equal(t, RDAPTaken, signal.Outcome)
	require.False(t, signal.Premium)
}

func TestRDAPProbeTakenPremium(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rdap+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
  "objectClassName": "domain",
  "ldhName": "example.com",
  "status": ["active", "premium name"]
}`))
	}))
	defer server.Close()

	prober := &RDAPProber{Directory: directoryFor("com", server.URL)}

	signal := prober.Probe(context.Background(), "example.com", "com")
	require.Equal(t, RDAPTaken, signal.Outcome)
	require.True(t, signal.Premium)
}

func TestRDAPProbeUnsupportedTLD(t *testing.T) {
	prober := &RDAPProber{Directory: &registry.Service{Static: map[string]registry.Endpoint{}}}

	signal := prober.Probe(context.Background(), "example.zzz", "zzz")
	require.Equal(t, RDAPUnsupported, signal.Outcome)
}

func TestRDAPProbeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	prober := &RDAPProber{
		Directory: directoryFor("com", server.URL),
		Timeout:   30 * time.Millisecond,
	}

	start := time.Now()
	signal := prober.Probe(context.Background(), "example.com", "com")
	require.Equal(t, RDAPTimeout, signal.Outcome)
	require.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestRDAPProbeFallbackServer(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer fallback.Close()

	prober := &RDAPProber{
		Directory: &registry.Service{
			Static:    map[string]registry.Endpoint{},
			Overrides: map[string][]string{"com": {primary.URL, fallback.URL}},
		},
	}

	signal := prober.Probe(context.Background(), "example.com", "com")
	require.Equal(t, RDAPAvailable, signal.Outcome)
}

func TestHasPremiumStatus(t *testing.T) {
	require.True(t, hasPremiumStatus([]string{"active", "Premium Name"}))
	require.True(t, hasPremiumStatus([]string{"reserved"}))
	require.False(t, hasPremiumStatus([]string{"active", "client transfer prohibited"}))
	require.False(t, hasPremiumStatus(nil))
}
