package lemonsqueezy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.lemonsqueezy.com/v1"
	contentType    = "application/vnd.api+json"
)

// ErrMissingCheckoutURL is returned when a successful response carries no checkout URL.
var ErrMissingCheckoutURL = errors.New("checkout response missing url")

// APIError surfaces non-successful HTTP responses from Lemon Squeezy.
type APIError struct {
	StatusCode int
	StatusText string
	Detail     string
	Body       string
	RetryAfter string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.StatusText)
}

func (e *APIError) HTTPStatus() int          { return e.StatusCode }
func (e *APIError) RetryAfterHeader() string { return e.RetryAfter }

type Config struct {
	BaseURL   string
	APIKey    string
	StoreID   string
	VariantID string
	Timeout   time.Duration
}

// Client is a lightweight Lemon Squeezy API client covering checkout creation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	storeID    string
	variantID  string
}

func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.StoreID) == "" {
		return nil, errors.New("lemon squeezy api key and store id must be set")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		storeID:    cfg.StoreID,
		variantID:  cfg.VariantID,
	}, nil
}

// CreateCheckout asks the processor for a hosted checkout and returns its URL.
// The transaction id travels in custom data so the order webhook can be correlated.
func (c *Client) CreateCheckout(ctx context.Context, in CheckoutInput) (string, error) {
	minor := ToMinorUnits(in.Amount)
	custom := map[string]any{
		"amount_minor_units": minor,
		"currency":           in.Currency,
	}
	if in.TransactionID != "" {
		custom["transaction_id"] = in.TransactionID
	}
	if in.CustomerEmail != "" {
		custom["customer_email"] = in.CustomerEmail
	}
	if in.CustomerName != "" {
		custom["customer_name"] = in.CustomerName
	}

	payload := checkoutRequest{Data: checkoutRequestData{
		Type: "checkouts",
		Attributes: checkoutAttributes{
			CustomPrice: minor,
			CheckoutData: checkoutData{
				Email:  in.CustomerEmail,
				Name:   in.CustomerName,
				Custom: custom,
			},
			ProductOptions: productOptions{
				Name:        in.ProductName,
				Description: in.Description,
				RedirectURL: in.RedirectURL,
			},
		},
		Relationships: checkoutRelationships{
			Store: relationship{Data: resourceIdentifier{Type: "stores", ID: c.storeID}},
		},
	}}
	if c.variantID != "" {
		payload.Data.Relationships.Variant = &relationship{Data: resourceIdentifier{Type: "variants", ID: c.variantID}}
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/checkouts", payload)
	if err != nil {
		return "", err
	}

	var resp checkoutResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode checkout response: %w", err)
	}
	if resp.Data.Attributes.URL == "" {
		return "", ErrMissingCheckoutURL
	}
	return resp.Data.Attributes.URL, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return nil, err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", contentType)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(data),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
		var envelope errorEnvelope
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Detail = envelope.detail()
		}
		return nil, apiErr
	}
	return data, nil
}
