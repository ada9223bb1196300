package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openrdap/rdap"

	"github.com/domainscout/domainscout/internal/core/engine"
	"github.com/domainscout/domainscout/internal/core/registry"
)

const defaultRDAPTimeout = 2 * time.Second

// premiumStatuses are the RDAP status markers that flag a taken domain
// as premium or registry-reserved.
var premiumStatuses = []string{"premium", "reserved"}

// RDAPProber performs authoritative availability lookups against the
// TLD's RDAP endpoint. Every request is deadline-bounded so one slow
// registry cannot stall a whole batch.
type RDAPProber struct {
	Directory registry.Directory
	Client    *rdap.Client
	Limiter   *engine.RateLimiter
	Timeout   time.Duration
}

// Probe resolves the TLD through the registry directory and queries
// its RDAP servers in order. Unsupported TLDs return immediately with
// no network call.
func (p *RDAPProber) Probe(ctx context.Context, domain, tld string) RDAPSignal {
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, err := p.lookupEndpoint(ctx, tld)
	if err != nil {
		return RDAPSignal{Outcome: RDAPTransportError, Detail: fmt.Sprintf("registry directory: %v", err)}
	}
	if endpoint == nil || len(endpoint.RDAPBaseURLs) == 0 {
		return RDAPSignal{Outcome: RDAPUnsupported, Detail: fmt.Sprintf("no rdap server for tld %q", tld)}
	}

	client := p.Client
	if client == nil {
		client = &rdap.Client{}
	}

	timeout := defaultRDAPTimeout
	if p.Timeout > 0 {
		timeout = p.Timeout
	}

	var last RDAPSignal
	for _, serverBase := range endpoint.RDAPBaseURLs {
		serverURL, err := url.Parse(serverBase)
		if err != nil {
			last = RDAPSignal{Outcome: RDAPTransportError, Detail: fmt.Sprintf("invalid rdap server url: %v", err)}
			continue
		}
		requestURL := rdapDomainURL(serverURL, domain)

		if signal := p.allow(ctx, serverURL.Hostname(), requestURL); signal != nil {
			last = *signal
			continue
		}

		req := rdap.NewDomainRequest(domain).WithServer(serverURL)
		req.Timeout = timeout
		req = req.WithContext(ctx)

		p.record(ctx, serverURL.Hostname())

		resp, reqErr := client.Do(req)
		statusCode, server := responseStatus(resp, requestURL)

		if reqErr != nil {
			if isNotFound(reqErr) || statusCode == 404 {
				return RDAPSignal{Outcome: RDAPAvailable, StatusCode: statusCode, Server: server, Detail: "rdap not found"}
			}
			if isTimeout(reqErr) {
				last = RDAPSignal{Outcome: RDAPTimeout, StatusCode: statusCode, Server: server, Detail: "rdap timeout"}
				continue
			}
			if statusCode == 429 {
				p.backoff(ctx, serverURL.Hostname(), resp)
				last = RDAPSignal{Outcome: RDAPTransportError, StatusCode: statusCode, Server: server, Detail: "rdap rate limited"}
				continue
			}
			last = RDAPSignal{Outcome: RDAPTransportError, StatusCode: statusCode, Server: server, Detail: reqErr.Error()}
			continue
		}

		if domainObj, ok := resp.Object.(*rdap.Domain); ok {
			return RDAPSignal{
				Outcome:    RDAPTaken,
				Premium:    hasPremiumStatus(domainObj.Status),
				StatusCode: statusCode,
				Server:     server,
				Detail:     "domain found",
			}
		}

		last = RDAPSignal{Outcome: RDAPTransportError, StatusCode: statusCode, Server: server, Detail: "unexpected rdap response"}
	}

	if last.Detail == "" {
		last = RDAPSignal{Outcome: RDAPTransportError, Detail: fmt.Sprintf("no rdap servers responded for tld %q", tld)}
	}
	return last
}

func (p *RDAPProber) lookupEndpoint(ctx context.Context, tld string) (*registry.Endpoint, error) {
	if p == nil || p.Directory == nil {
		return nil, nil
	}
	return p.Directory.Lookup(ctx, tld)
}

// allow consults the rate limiter; a non-nil signal means the request
// must be skipped.
func (p *RDAPProber) allow(ctx context.Context, endpoint, requestURL string) *RDAPSignal {
	if p == nil || p.Limiter == nil || endpoint == "" {
		return nil
	}
	allowed, wait, err := p.Limiter.Allow(ctx, endpoint)
	if err != nil {
		return &RDAPSignal{Outcome: RDAPTransportError, Server: requestURL, Detail: err.Error()}
	}
	if !allowed {
		return &RDAPSignal{
			Outcome: RDAPTransportError,
			Server:  requestURL,
			Detail:  fmt.Sprintf("rate limited, retry in %s", wait.Round(time.Second)),
		}
	}
	return nil
}

func (p *RDAPProber) record(ctx context.Context, endpoint string) {
	if p == nil || p.Limiter == nil || endpoint == "" {
		return
	}
	_ = p.Limiter.Record(ctx, endpoint)
}

func (p *RDAPProber) backoff(ctx context.Context, endpoint string, resp *rdap.Response) {
	if p == nil || p.Limiter == nil || endpoint == "" {
		return
	}
	if wait := retryAfter(resp); wait > 0 {
		_ = p.Limiter.Record429(ctx, endpoint, wait)
	}
}

func hasPremiumStatus(statuses []string) bool {
	for _, status := range statuses {
		lower := strings.ToLower(status)
		for _, marker := range premiumStatuses {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func rdapDomainURL(server *url.URL, domain string) string {
	if server == nil {
		return ""
	}

	temp := *server
	temp.RawQuery = ""
	temp.Fragment = ""
	base := temp.String()
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "domain/" + strings.TrimSpace(domain)
}

func responseStatus(resp *rdap.Response, fallbackURL string) (int, string) {
	if resp == nil || len(resp.HTTP) == 0 || resp.HTTP[0] == nil || resp.HTTP[0].Response == nil {
		return 0, strings.TrimSpace(fallbackURL)
	}

	hrr := resp.HTTP[0].Response
	requestURL := resp.HTTP[0].URL
	if strings.TrimSpace(requestURL) == "" {
		requestURL = strings.TrimSpace(fallbackURL)
	}

	return hrr.StatusCode, requestURL
}

func retryAfter(resp *rdap.Response) time.Duration {
	if resp == nil || len(resp.HTTP) == 0 || resp.HTTP[0] == nil || resp.HTTP[0].Response == nil {
		return 0
	}

	retry := resp.HTTP[0].Response.Header.Get("Retry-After")
	if retry == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retry); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		return time.Until(parsed)
	}
	return 0
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var clientErr *rdap.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == rdap.ObjectDoesNotExist
	}
	return false
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "timeout") || strings.Contains(message, "deadline exceeded")
}
