package location

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	ProviderIPAPI    = "ipapi"
	ProviderIPWhois  = "ipwhois"
	ProviderIPAPICom = "ipapicom"
	ProviderIPInfo   = "ipinfo"

	defaultIPAPIURL    = "https://ipapi.co"
	defaultIPWhoisURL  = "https://ipwho.is"
	defaultIPAPIComURL = "http://ip-api.com"
	defaultIPInfoURL   = "https://ipinfo.io"
)

// ipEndpoint carries the fields shared by every IP geolocation adapter.
type ipEndpoint struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

func (e ipEndpoint) get(ctx context.Context, provider, path string, out any) error {
	headers := map[string]string{}
	if e.userAgent != "" {
		headers["User-Agent"] = e.userAgent
	}
	return fetchJSON(ctx, e.client, provider, e.baseURL+path, headers, out)
}

// rateLimitedPayload is returned for a well-formed error body. Such answers are
// definitive for the current provider and are never retried.
func rateLimitedPayload(provider, reason string) *ProviderError {
	if reason == "" {
		reason = "provider reported an error"
	}
	return newProviderError(provider, FailureRateLimited, errors.New(reason))
}

func missingCoordinates(provider string) *ProviderError {
	return newProviderError(provider, FailureIncomplete, errors.New("response has no usable lat/lon"))
}

// IPAPIProvider queries ipapi.co.
type IPAPIProvider struct{ ipEndpoint }

type ipapiResponse struct {
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
	Message     string `json:"message"`
	Latitude    coord  `json:"latitude"`
	Longitude   coord  `json:"longitude"`
	City        string `json:"city"`
	Region      string `json:"region"`
	CountryName string `json:"country_name"`
	Org         string `json:"org"`
}

func NewIPAPIProvider(client *http.Client, userAgent string) *IPAPIProvider {
	return &IPAPIProvider{ipEndpoint{client: client, baseURL: defaultIPAPIURL, userAgent: userAgent}}
}

func (p *IPAPIProvider) Name() string { return ProviderIPAPI }

func (p *IPAPIProvider) Call(ctx context.Context, ip string) (IPLocationResult, error) {
	var resp ipapiResponse
	if err := p.get(ctx, p.Name(), "/"+url.PathEscape(ip)+"/json/", &resp); err != nil {
		return IPLocationResult{}, err
	}
	if resp.Error {
		return IPLocationResult{}, rateLimitedPayload(p.Name(), firstNonEmpty(resp.Reason, resp.Message))
	}

	point, ok := pointFrom(resp.Latitude, resp.Longitude)
	if !ok {
		return IPLocationResult{}, missingCoordinates(p.Name())
	}
	return newIPResult(ip, point, p.Name(), resp.City, resp.Region, resp.CountryName, resp.Org), nil
}

// IPWhoisProvider queries ipwho.is.
type IPWhoisProvider struct{ ipEndpoint }

type ipwhoisResponse struct {
	Success    *bool  `json:"success"`
	Message    string `json:"message"`
	Latitude   coord  `json:"latitude"`
	Longitude  coord  `json:"longitude"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Country    string `json:"country"`
	Connection struct {
		Org string `json:"org"`
		ISP string `json:"isp"`
	} `json:"connection"`
}

func NewIPWhoisProvider(client *http.Client, userAgent string) *IPWhoisProvider {
	return &IPWhoisProvider{ipEndpoint{client: client, baseURL: defaultIPWhoisURL, userAgent: userAgent}}
}

func (p *IPWhoisProvider) Name() string { return ProviderIPWhois }

func (p *IPWhoisProvider) Call(ctx context.Context, ip string) (IPLocationResult, error) {
	var resp ipwhoisResponse
	if err := p.get(ctx, p.Name(), "/"+url.PathEscape(ip), &resp); err != nil {
		return IPLocationResult{}, err
	}
	if resp.Success != nil && !*resp.Success {
		return IPLocationResult{}, rateLimitedPayload(p.Name(), resp.Message)
	}

	point, ok := pointFrom(resp.Latitude, resp.Longitude)
	if !ok {
		return IPLocationResult{}, missingCoordinates(p.Name())
	}
	org := firstNonEmpty(resp.Connection.Org, resp.Connection.ISP)
	return newIPResult(ip, point, p.Name(), resp.City, resp.Region, resp.Country, org), nil
}

// IPAPIComProvider queries ip-api.com. The free tier is plain HTTP only.
type IPAPIComProvider struct{ ipEndpoint }

type ipapiComResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Lat        coord  `json:"lat"`
	Lon        coord  `json:"lon"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
	Country    string `json:"country"`
	Org        string `json:"org"`
	ISP        string `json:"isp"`
}

func NewIPAPIComProvider(client *http.Client, userAgent string) *IPAPIComProvider {
	return &IPAPIComProvider{ipEndpoint{client: client, baseURL: defaultIPAPIComURL, userAgent: userAgent}}
}

func (p *IPAPIComProvider) Name() string { return ProviderIPAPICom }

func (p *IPAPIComProvider) Call(ctx context.Context, ip string) (IPLocationResult, error) {
	var resp ipapiComResponse
	if err := p.get(ctx, p.Name(), "/json/"+url.PathEscape(ip), &resp); err != nil {
		return IPLocationResult{}, err
	}
	if strings.EqualFold(resp.Status, "fail") {
		return IPLocationResult{}, rateLimitedPayload(p.Name(), resp.Message)
	}

	point, ok := pointFrom(resp.Lat, resp.Lon)
	if !ok {
		return IPLocationResult{}, missingCoordinates(p.Name())
	}
	org := firstNonEmpty(resp.Org, resp.ISP)
	return newIPResult(ip, point, p.Name(), resp.City, resp.RegionName, resp.Country, org), nil
}

// IPInfoProvider queries ipinfo.io, whose coordinates come as one "lat,lon"
// string, so it is tried last.
type IPInfoProvider struct {
	ipEndpoint
	token string
}

type ipinfoResponse struct {
	Bogon   bool   `json:"bogon"`
	Loc     string `json:"loc"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Org     string `json:"org"`
	Error   *struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewIPInfoProvider(client *http.Client, userAgent, token string) *IPInfoProvider {
	return &IPInfoProvider{
		ipEndpoint: ipEndpoint{client: client, baseURL: defaultIPInfoURL, userAgent: userAgent},
		token:      token,
	}
}

func (p *IPInfoProvider) Name() string { return ProviderIPInfo }

func (p *IPInfoProvider) Call(ctx context.Context, ip string) (IPLocationResult, error) {
	path := "/" + url.PathEscape(ip) + "/json"
	if p.token != "" {
		path += "?token=" + url.QueryEscape(p.token)
	}

	var resp ipinfoResponse
	if err := p.get(ctx, p.Name(), path, &resp); err != nil {
		return IPLocationResult{}, err
	}
	if resp.Error != nil {
		return IPLocationResult{}, rateLimitedPayload(p.Name(), firstNonEmpty(resp.Error.Message, resp.Error.Title))
	}
	if resp.Bogon {
		return IPLocationResult{}, newProviderError(p.Name(), FailureNotFound, fmt.Errorf("%s is a bogon address", ip))
	}

	point, ok := splitLatLon(resp.Loc)
	if !ok {
		return IPLocationResult{}, missingCoordinates(p.Name())
	}
	return newIPResult(ip, point, p.Name(), resp.City, resp.Region, resp.Country, resp.Org), nil
}

func newIPResult(ip string, point GeoPoint, provider, city, region, country, org string) IPLocationResult {
	var parts []string
	for _, part := range []string{city, region, country} {
		if s := strings.TrimSpace(part); s != "" {
			parts = append(parts, s)
		}
	}

	return IPLocationResult{
		LocationResult: LocationResult{
			Point:          point,
			Address:        firstNonEmpty(strings.Join(parts, ", "), AddressNotFound),
			City:           strings.TrimSpace(city),
			Region:         strings.TrimSpace(region),
			Country:        strings.TrimSpace(country),
			SourceProvider: provider,
		},
		IP:  ip,
		Org: strings.TrimSpace(org),
	}
}
