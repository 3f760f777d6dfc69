package clients

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/vakhileshni/whatsApp-sub000/internal/models"
	"github.com/vakhileshni/whatsApp-sub000/pkg/errors"
	"github.com/vakhileshni/whatsApp-sub000/pkg/logger"
)

// BackendClient is a client for the restaurant REST backend. It never
// retries: every caller is either operator-attended or a fixed-cadence tick.
type BackendClient struct {
	http   *resty.Client
	logger logger.Logger
}

// UPIChallengeRequest is the body of the challenge request
type UPIChallengeRequest struct {
	UPIID    string `json:"upi_id"`
	Password string `json:"password"`
}

// UPIConfirmRequest is the body of the confirm request
type UPIConfirmRequest struct {
	Code        string `json:"code"`
	UPIID       string `json:"upi_id"`
	Password    string `json:"password"`
	NewPassword string `json:"new_password,omitempty"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type verifyPaymentRequest struct {
	CustomerUPIName string `json:"customer_upi_name"`
}

// errorResponse covers the error envelopes the backend is known to use
type errorResponse struct {
	Detail  json.RawMessage `json:"detail,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NewBackendClient creates a new BackendClient instance
func NewBackendClient(baseURL, token string, timeout time.Duration, logger logger.Logger) *BackendClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	if token != "" {
		client.SetAuthToken(token)
	}

	return &BackendClient{
		http:   client,
		logger: logger,
	}
}

// ListOrders fetches every order visible to the restaurant
func (c *BackendClient) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order

	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetStats fetches the dashboard counters
func (c *BackendClient) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats

	if err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

// UpdateOrderStatus requests one state machine transition
func (c *BackendClient) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	path := fmt.Sprintf("/orders/%s/status", url.PathEscape(orderID))

	if err := c.do(ctx, http.MethodPatch, path, statusRequest{Status: status}, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// VerifyOrderPayment marks an order's payment as received from payerName
func (c *BackendClient) VerifyOrderPayment(ctx context.Context, orderID, payerName string) (*models.Order, error) {
	var order models.Order
	path := fmt.Sprintf("/orders/%s/verify-payment", url.PathEscape(orderID))

	if err := c.do(ctx, http.MethodPatch, path, verifyPaymentRequest{CustomerUPIName: payerName}, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// RequestUPIChallenge asks the backend to issue an ownership challenge
func (c *BackendClient) RequestUPIChallenge(ctx context.Context, request UPIChallengeRequest) (*models.UPIChallenge, error) {
	var challenge models.UPIChallenge

	if err := c.do(ctx, http.MethodPost, "/restaurant/upi/verify", request, &challenge); err != nil {
		return nil, err
	}

	return &challenge, nil
}

// ConfirmUPIVerification submits the relayed code for authoritative validation
func (c *BackendClient) ConfirmUPIVerification(ctx context.Context, request UPIConfirmRequest) (*models.RestaurantInfo, error) {
	var info models.RestaurantInfo

	if err := c.do(ctx, http.MethodPost, "/restaurant/upi/confirm", request, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, body, result interface{}) error {
	requestID := uuid.New().String()
	start := time.Now()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID)

	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)

	if err != nil {
		appErr := classifyTransportError(err)
		c.logger.Warn("Backend request failed",
			"method", method,
			"path", path,
			"requestID", requestID,
			"network", errors.IsNetwork(appErr),
			"error", err)
		return appErr
	}

	c.logger.Debug("Backend request completed",
		"method", method,
		"path", path,
		"requestID", requestID,
		"status", resp.StatusCode(),
		"duration", time.Since(start))

	if resp.StatusCode() >= 400 {
		message := backendMessage(resp.StatusCode(), resp.Body())
		c.logger.Warn("Backend rejected request",
			"method", method,
			"path", path,
			"requestID", requestID,
			"status", resp.StatusCode(),
			"message", message)
		return errors.NewBackendError(resp.StatusCode(), message)
	}

	if result == nil || len(resp.Body()) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to parse response: %v", err))
	}

	return nil
}

func classifyTransportError(err error) *errors.AppError {
	var netErr net.Error

	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewTimeoutError(fmt.Sprintf("request timed out: %v", err))
	}

	return errors.NewNetworkError(fmt.Sprintf("failed to reach backend: %v", err))
}

// backendMessage extracts the backend's own error text. It is passed to the
// operator unchanged.
func backendMessage(status int, body []byte) string {
	var envelope errorResponse

	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			var detail string
			if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail != "" {
				return detail
			}
			return string(envelope.Detail)
		}
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return http.StatusText(status)
}
