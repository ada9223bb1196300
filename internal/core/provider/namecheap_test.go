package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/domainscout/domainscout/internal/config"
)

const checkResponseOK = `<?xml version="1.0" encoding="utf-8"?>
<ApiResponse Status="OK" xmlns="http://api.namecheap.com/xml.response">
  <Errors />
  <CommandResponse Type="namecheap.domains.check">
    <DomainCheckResult Domain="nexify.com" Available="false" IsPremiumName="false" PremiumRegistrationPrice="0" />
    <DomainCheckResult Domain="nexify.io" Available="true" IsPremiumName="false" PremiumRegistrationPrice="0" />
    <DomainCheckResult Domain="brandly.com" Available="true" IsPremiumName="true" PremiumRegistrationPrice="2499.99" />
  </CommandResponse>
</ApiResponse>`

const checkResponseError = `<?xml version="1.0" encoding="utf-8"?>
<ApiResponse Status="ERROR" xmlns="http://api.namecheap.com/xml.response">
  <Errors>
    <Error Number="1011102">API Key is invalid or API access has not been enabled</Error>
  </Errors>
  <CommandResponse Type="namecheap.domains.check" />
</ApiResponse>`

func namecheapFor(serverURL string) *Namecheap {
	return &Namecheap{
		Config: config.NamecheapConfig{
			BaseURL:  serverURL,
			APIUser:  "scout",
			APIKey:   "secret",
			ClientIP: "192.0.2.1",
		},
	}
}

func TestCheckManyMapsResults(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(checkResponseOK))
	}))
	defer server.Close()

	checker := namecheapFor(server.URL)
	results, err := checker.CheckMany(context.Background(), []string{"nexify.com", "nexify.io", "brandly.com"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, "namecheap.domains.check", gotQuery["Command"][0])
	require.Equal(t, "nexify.com,nexify.io,brandly.com", gotQuery["DomainList"][0])
	require.Equal(t, "scout", gotQuery["ApiUser"][0])
	require.Equal(t, "scout", gotQuery["UserName"][0])

	require.Equal(t, "nexify.com", results[0].Domain)
	require.False(t, results[0].Available)
	require.Empty(t, results[0].Error)

	require.Equal(t, "nexify.io", results[1].Domain)
	require.True(t, results[1].Available)
	require.NotNil(t, results[1].Premium)
	require.False(t, *results[1].Premium)
	require.Nil(t, results[1].PremiumPrice)

	require.Equal(t, "brandly.com", results[2].Domain)
	require.True(t, results[2].Available)
	require.NotNil(t, results[2].Premium)
	require.True(t, *results[2].Premium)
	require.NotNil(t, results[2].PremiumPrice)
	require.InDelta(t, 2499.99, *results[2].PremiumPrice, 0.001)
	require.NotNil(t, results[2].Aftermarket)
	require.True(t, *results[2].Aftermarket)
	require.Nil(t, results[1].Aftermarket)
}

func TestCheckManySynthesizesMissingDomains(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(checkResponseOK))
	}))
	defer server.Close()

	checker := namecheapFor(server.URL)
	results, err := checker.CheckMany(context.Background(), []string{"nexify.com", "omitted.com"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "omitted.com", results[1].Domain)
	require.False(t, results[1].Available)
	require.Equal(t, missingDomainMessage, results[1].Error)
}

func TestCheckManyErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(checkResponseError))
	}))
	defer server.Close()

	checker := namecheapFor(server.URL)
	results, err := checker.CheckMany(context.Background(), []string{"nexify.com"})
	require.Error(t, err)
	require.Nil(t, results)
	require.Contains(t, err.Error(), "1011102")
}

func TestCheckManyRejectsOversizedGroup(t *testing.T) {
	checker := namecheapFor("https://api.example.test")

	domains := make([]string, namecheapGroupLimit+1)
	for i := range domains {
		domains[i] = "example.com"
	}

	_, err := checker.CheckMany(context.Background(), domains)
	require.Error(t, err)
}

func TestCheckManyHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	checker := namecheapFor(server.URL)
	_, err := checker.CheckMany(context.Background(), []string{"nexify.com"})
	require.Error(t, err)
}
