package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/domainscout/domainscout/internal/config"
	"github.com/domainscout/domainscout/internal/core"
	"github.com/domainscout/domainscout/internal/core/engine"
)

const (
	namecheapGroupLimit   = 50
	namecheapCheckCommand = "namecheap.domains.check"
	defaultNamecheapURL   = "https://api.namecheap.com/xml.response"
	defaultRequestTimeout = 10 * time.Second
	namecheapSourceName   = "namecheap"
	missingDomainMessage  = "domain missing from provider response"
)

// Namecheap adapts the namecheap.domains.check XML API to the
// BulkChecker contract.
type Namecheap struct {
	Config     config.NamecheapConfig
	HTTPClient *http.Client
	Limiter    *engine.RateLimiter
	Clock      func() time.Time
}

// apiResponse is the Namecheap XML envelope.
type apiResponse struct {
	XMLName xml.Name `xml:"ApiResponse"`
	Status  string   `xml:"Status,attr"`
	Errors  struct {
		Errors []apiError `xml:"Error"`
	} `xml:"Errors"`
	CommandResponse struct {
		Results []domainCheckResult `xml:"DomainCheckResult"`
	} `xml:"CommandResponse"`
}

type apiError struct {
	Number  string `xml:"Number,attr"`
	Message string `xml:",chardata"`
}

type domainCheckResult struct {
	Domain                   string `xml:"Domain,attr"`
	Available                string `xml:"Available,attr"`
	IsPremiumName            string `xml:"IsPremiumName,attr"`
	PremiumRegistrationPrice string `xml:"PremiumRegistrationPrice,attr"`
	Description              string `xml:"Description,attr"`
}

// GroupLimit returns the per-call domain cap the API enforces.
func (n *Namecheap) GroupLimit() int {
	return namecheapGroupLimit
}

// CheckMany queries availability for up to GroupLimit domains in one
// call. The returned slice has exactly one result per requested
// domain, in request order.
func (n *Namecheap) CheckMany(ctx context.Context, domains []string) ([]core.AvailabilityResult, error) {
	if len(domains) == 0 {
		return nil, nil
	}
	if len(domains) > namecheapGroupLimit {
		return nil, fmt.Errorf("namecheap check accepts at most %d domains, got %d", namecheapGroupLimit, len(domains))
	}

	if ctx == nil {
		ctx = context.Background()
	}

	requestedAt := n.now()
	checkID := uuid.NewString()

	requestURL, host, err := n.buildRequestURL(domains)
	if err != nil {
		return nil, err
	}

	if n.Limiter != nil {
		allowed, wait, err := n.Limiter.Allow(ctx, host)
		if err == nil && !allowed {
			return nil, fmt.Errorf("namecheap rate limited, retry in %s", wait.Round(time.Second))
		}
		_ = n.Limiter.Record(ctx, host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build namecheap request: %w", err)
	}

	resp, err := n.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("namecheap request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode == http.StatusTooManyRequests && n.Limiter != nil {
		_ = n.Limiter.Record429(ctx, host, time.Minute)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("namecheap request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read namecheap response: %w", err)
	}

	var envelope apiResponse
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode namecheap response: %w", err)
	}

	if !strings.EqualFold(envelope.Status, "OK") {
		return nil, fmt.Errorf("namecheap error envelope: %s", envelopeErrors(envelope))
	}

	byDomain := make(map[string]domainCheckResult, len(envelope.CommandResponse.Results))
	for _, item := range envelope.CommandResponse.Results {
		byDomain[strings.ToLower(strings.TrimSpace(item.Domain))] = item
	}

	results := make([]core.AvailabilityResult, 0, len(domains))
	for _, domain := range domains {
		key := strings.ToLower(strings.TrimSpace(domain))
		provenance := core.Provenance{
			CheckID:     checkID,
			RequestedAt: requestedAt,
			ResolvedAt:  n.now(),
			Source:      namecheapSourceName,
			Server:      host,
		}

		item, ok := byDomain[key]
		if !ok {
			results = append(results, core.AvailabilityResult{
				Domain:     key,
				Available:  false,
				Error:      missingDomainMessage,
				Provenance: provenance,
			})
			continue
		}

		result := core.AvailabilityResult{
			Domain:     key,
			Available:  strings.EqualFold(item.Available, "true"),
			Provenance: provenance,
		}

		premium := strings.EqualFold(item.IsPremiumName, "true")
		result.Premium = core.BoolPtr(premium)
		if premium {
			if price, err := strconv.ParseFloat(strings.TrimSpace(item.PremiumRegistrationPrice), 64); err == nil && price > 0 {
				result.PremiumPrice = &price
				// A priced premium listing is an aftermarket offer.
				result.Aftermarket = core.BoolPtr(true)
			}
		}

		if !result.Available && item.Description != "" {
			result.Error = item.Description
		}

		results = append(results, result)
	}

	return results, nil
}

func (n *Namecheap) buildRequestURL(domains []string) (string, string, error) {
	base := strings.TrimSpace(n.Config.BaseURL)
	if base == "" {
		base = defaultNamecheapURL
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", "", fmt.Errorf("invalid namecheap base url: %w", err)
	}

	username := strings.TrimSpace(n.Config.Username)
	if username == "" {
		username = strings.TrimSpace(n.Config.APIUser)
	}

	query := parsed.Query()
	query.Set("ApiUser", strings.TrimSpace(n.Config.APIUser))
	query.Set("ApiKey", strings.TrimSpace(n.Config.APIKey))
	query.Set("UserName", username)
	query.Set("ClientIp", strings.TrimSpace(n.Config.ClientIP))
	query.Set("Command", namecheapCheckCommand)
	query.Set("DomainList", strings.Join(domains, ","))
	parsed.RawQuery = query.Encode()

	return parsed.String(), parsed.Hostname(), nil
}

func (n *Namecheap) client() *http.Client {
	if n.HTTPClient != nil {
		return n.HTTPClient
	}

	timeout := n.Config.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (n *Namecheap) now() time.Time {
	if n.Clock != nil {
		return n.Clock()
	}
	return time.Now().UTC()
}

func envelopeErrors(envelope apiResponse) string {
	if len(envelope.Errors.Errors) == 0 {
		return "unknown provider error"
	}

	messages := make([]string, 0, len(envelope.Errors.Errors))
	for _, item := range envelope.Errors.Errors {
		message := strings.TrimSpace(item.Message)
		if item.Number != "" {
			message = fmt.Sprintf("[%s] %s", item.Number, message)
		}
		messages = append(messages, message)
	}
	return strings.Join(messages, "; ")
}
