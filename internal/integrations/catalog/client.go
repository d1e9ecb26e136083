package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client клиент каталога услуг (длительность и цена услуги)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента каталога
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetService получает услугу исполнителя
// Неактивная услуга возвращается вместе с ErrServiceInactive
func (c *Client) GetService(ctx context.Context, providerID, serviceID int64) (*Service, error) {
	url := fmt.Sprintf("%s/internal/providers/%d/services/%d", c.baseURL, providerID, serviceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Catalog request failed: provider_id=%d, service_id=%d: %v", providerID, serviceID, err)
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrServiceNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var service Service
	if err := json.NewDecoder(resp.Body).Decode(&service); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	if service.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: service %d has non-positive duration %d", ErrInvalidResponse, serviceID, service.DurationMinutes)
	}
	if service.Price.IsNegative() {
		return nil, fmt.Errorf("%w: service %d has negative price %s", ErrInvalidResponse, serviceID, service.Price)
	}
	if service.ProviderID != 0 && service.ProviderID != providerID {
		return nil, ErrServiceNotFound
	}
	if !service.Active {
		return &service, ErrServiceInactive
	}

	return &service, nil
}
