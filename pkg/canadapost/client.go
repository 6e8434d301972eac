package canadapost

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://ct.canadapost.ca"
	ratePath                    = "/getnrates"
	responseBodyReadLimit       = 1 << 16
	errorBodyReadLimit    int64 = 1024
)

var (
	errCredentialsRequired = errors.New("canada post credentials are required")
)

// Client wraps the Canada Post rating API used for shipping quotes.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	username       string
	password       string
	customerNumber string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured rating base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Canada Post client given API credentials.
func NewClient(username, password, customerNumber string, opts ...Option) (*Client, error) {
	trimmedUser := strings.TrimSpace(username)
	trimmedPass := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPass == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		username:       trimmedUser,
		password:       trimmedPass,
		customerNumber: strings.TrimSpace(customerNumber),
		baseURL:        defaultBaseURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// RateRequest describes a quote for a single parcel between two postal codes.
type RateRequest struct {
	OriginPostalCode      string
	DestinationPostalCode string
	WeightGrams           int
}

// RateOption is one shipping service returned by the rating API.
type RateOption struct {
	ServiceCode     string
	ServiceName     string
	Price           decimal.Decimal
	GuaranteedDays  string
	EstDeliveryDate string
}

type rateRequestXML struct {
	XMLName xml.Name     `xml:"eparcel"`
	Quote   rateQuoteXML `xml:"quote"`
}

type rateQuoteXML struct {
	OriginPostalCode      string        `xml:"origin-postal-code"`
	DestinationPostalCode string        `xml:"destination-postal-code"`
	Parcel                rateParcelXML `xml:"parcel"`
}

type rateParcelXML struct {
	Weight int `xml:"weight"`
}

// services sit directly under the response root, so the root name is not pinned
type rateResponseXML struct {
	Services []rateServiceXML `xml:"service"`
}

type rateServiceXML struct {
	ServiceCode     string `xml:"service-code"`
	ServiceName     string `xml:"service-name"`
	Price           string `xml:"price"`
	GuaranteedDays  string `xml:"guaranteed-days"`
	EstDeliveryDate string `xml:"est-delivery-date"`
}

type errorResponseXML struct {
	XMLName xml.Name `xml:"error"`
	Message string   `xml:"message"`
	Detail  string   `xml:"detail"`
}

// GetRates fetches live shipping rates for the given parcel.
func (c *Client) GetRates(ctx context.Context, req RateRequest) ([]RateOption, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "canada post client not configured")
	}
	if req.WeightGrams <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parcel weight must be positive")
	}

	payload, err := xml.Marshal(rateRequestXML{
		Quote: rateQuoteXML{
			OriginPostalCode:      normalizePostal(req.OriginPostalCode),
			DestinationPostalCode: normalizePostal(req.DestinationPostalCode),
			Parcel:                rateParcelXML{Weight: req.WeightGrams},
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal rate request")
	}

	body := append([]byte(xml.Header), payload...)
	url := strings.TrimRight(c.baseURL, "/") + ratePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build rate request")
	}
	httpReq.Header.Set("Content-Type", "application/xml")
	httpReq.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute rate request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "rate request failed")
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read rate response")
	}

	return parseRateResponse(raw)
}

func parseRateResponse(raw []byte) ([]RateOption, error) {
	var apiErr errorResponseXML
	if err := xml.Unmarshal(raw, &apiErr); err == nil {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = strings.TrimSpace(apiErr.Detail)
		}
		if msg == "" {
			msg = "canada post returned an error"
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg)
	}

	var parsed rateResponseXML
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode rate response")
	}

	options := make([]RateOption, 0, len(parsed.Services))
	for _, svc := range parsed.Services {
		code := strings.TrimSpace(svc.ServiceCode)
		if code == "" {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(svc.Price))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(svc.ServiceName)
		if name == "" {
			name = "Unknown"
		}
		options = append(options, RateOption{
			ServiceCode:     code,
			ServiceName:     name,
			Price:           price,
			GuaranteedDays:  strings.TrimSpace(svc.GuaranteedDays),
			EstDeliveryDate: strings.TrimSpace(svc.EstDeliveryDate),
		})
	}
	return options, nil
}

func normalizePostal(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
}
