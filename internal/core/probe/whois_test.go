package probe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpretWhoisNoMatch(t *testing.T) {
	raw := "No match for \"EXAMPLE-UNREGISTERED.COM\".\r\n>>> Last update of whois database: 2025-01-01T00:00:00Z <<<\r\n"

	signal := interpretWhois(raw, "whois.verisign-grs.com")
	require.Equal(t, WhoisAvailable, signal.Outcome)
	require.Equal(t, "whois.verisign-grs.com", signal.Server)
}

func TestInterpretWhoisRecordFound(t *testing.T) {
	raw := `Domain Name: EXAMPLE.COM
Registry Domain ID: 2336799_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.iana.org
Registrar: RESERVED-Internet Assigned Numbers Authority
Updated Date: 2024-08-14T07:01:34Z
Creation Date: 1995-08-14T04:00:00Z
Registry Expiry Date: 2025-08-13T04:00:00Z
Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
Name Server: A.IANA-SERVERS.NET
Name Server: B.IANA-SERVERS.NET
DNSSEC: signedDelegation
`

	signal := interpretWhois(raw, "whois.verisign-grs.com")
	require.Equal(t, WhoisTaken, signal.Outcome)
	require.False(t, signal.Premium)
}

func TestInterpretWhoisGarbageIsInconclusive(t *testing.T) {
	signal := interpretWhois("", "whois.nic.ai")
	require.Equal(t, WhoisInconclusive, signal.Outcome)
	require.NotEmpty(t, signal.Detail)
}
