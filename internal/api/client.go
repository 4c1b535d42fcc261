// Package api is the HTTP client for the FoodSeer platform API. The
// server owns persistence, authorization enforcement, and business
// rules; this client only moves JSON and maps failures onto the local
// error taxonomy. No retries: a failed call surfaces to the caller and
// leaves conversation state untouched.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"foodseer-bot/internal/metrics"
	"foodseer-bot/internal/models"
	"foodseer-bot/pkg/logger"
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type PreferencesUpdate struct {
	CostPreference      string   `json:"costPreference"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
}

// OrderFoodRef repeats per quantity: ordering two of food 7 sends two
// {"id":7} entries, matching what the server expects.
type OrderFoodRef struct {
	ID int64 `json:"id"`
}

type OrderRequest struct {
	Name        string         `json:"name"`
	Foods       []OrderFoodRef `json:"foods"`
	IsFulfilled bool           `json:"isFulfilled"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Message string `json:"message"`
}

// do runs one request and decodes the response into out when non-nil.
// The endpoint label keeps metrics cardinality flat while path carries
// the real IDs.
func (c *Client) do(ctx context.Context, endpoint, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(endpoint, 0, time.Since(start))
		c.logger.Error("API request failed", "endpoint", endpoint, "request_id", requestID, "error", err)
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	metrics.ObserveAPIRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	c.logger.Debug("API request",
		"endpoint", endpoint, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	// Some endpoints answer with an empty body on success.
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// --- Auth ---

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.do(ctx, "auth_login", http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, "auth_register", http.MethodPost, "/auth/register", "", req, nil)
}

// --- Users ---

func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "users_me", http.MethodGet, "/api/users/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, token string, update PreferencesUpdate) error {
	return c.do(ctx, "users_me_preferences", http.MethodPut, "/api/users/me/preferences", token, update, nil)
}

func (c *Client) Users(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, "users_list", http.MethodGet, "/api/users", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) UserByID(ctx context.Context, token string, id int64) (*models.User, error) {
	var user models.User
	path := fmt.Sprintf("/api/users/%d", id)
	if err := c.do(ctx, "users_get", http.MethodGet, path, token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUserRole(ctx context.Context, token string, id int64, role string) error {
	path := fmt.Sprintf("/api/users/%d/role", id)
	return c.do(ctx, "users_role", http.MethodPut, path, token, map[string]string{"role": role}, nil)
}

func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	path := fmt.Sprintf("/api/users/%d", id)
	return c.do(ctx, "users_delete", http.MethodDelete, path, token, nil, nil)
}

// --- Foods ---

func (c *Client) Foods(ctx context.Context, token string) ([]models.Food, error) {
	var foods []models.Food
	if err := c.do(ctx, "foods_list", http.MethodGet, "/api/foods", token, nil, &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

func (c *Client) FoodByID(ctx context.Context, token string, id int64) (*models.Food, error) {
	var food models.Food
	path := fmt.Sprintf("/api/foods/%d", id)
	if err := c.do(ctx, "foods_get", http.MethodGet, path, token, nil, &food); err != nil {
		return nil, err
	}
	return &food, nil
}

func (c *Client) CreateFood(ctx context.Context, token string, food models.Food) (*models.Food, error) {
	var created models.Food
	if err := c.do(ctx, "foods_create", http.MethodPost, "/api/foods", token, food, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateFood(ctx context.Context, token string, food models.Food) (*models.Food, error) {
	var updated models.Food
	if err := c.do(ctx, "foods_update", http.MethodPost, "/api/foods/updateFood", token, food, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteFood removes a food. Foods that are part of unfulfilled orders
// come back as a 409 whose body explains the conflict; callers surface
// that text via IsConflict.
func (c *Client) DeleteFood(ctx context.Context, token string, id int64) error {
	path := fmt.Sprintf("/api/foods/%d", id)
	return c.do(ctx, "foods_delete", http.MethodDelete, path, token, nil, nil)
}

// --- Inventory ---

func (c *Client) Inventory(ctx context.Context, token string) ([]models.Food, error) {
	var foods []models.Food
	if err := c.do(ctx, "inventory_list", http.MethodGet, "/api/inventory", token, nil, &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

func (c *Client) UpdateInventory(ctx context.Context, token string, food models.Food) (*models.Food, error) {
	var updated models.Food
	if err := c.do(ctx, "inventory_update", http.MethodPost, "/api/inventory", token, food, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// --- Orders ---

func (c *Client) Orders(ctx context.Context, token string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, "orders_list", http.MethodGet, "/api/orders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) MyOrders(ctx context.Context, token string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, "orders_mine", http.MethodGet, "/api/orders/my-orders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) FulfilledOrders(ctx context.Context, token string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, "orders_fulfilled", http.MethodGet, "/api/orders/fulfilledOrders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) UnfulfilledOrders(ctx context.Context, token string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, "orders_unfulfilled", http.MethodGet, "/api/orders/unfulfilledOrders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) OrderByID(ctx context.Context, token string, id int64) (*models.Order, error) {
	var order models.Order
	path := fmt.Sprintf("/api/orders/%d", id)
	if err := c.do(ctx, "orders_get", http.MethodGet, path, token, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CreateOrder(ctx context.Context, token string, req OrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, "orders_create", http.MethodPost, "/api/orders", token, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) FulfillOrder(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "orders_fulfill", http.MethodPost, "/api/orders/fulfillOrder", token, map[string]int64{"id": id}, nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id int64) (*models.Order, error) {
	var order models.Order
	path := fmt.Sprintf("/api/orders/%d/status", id)
	if err := c.do(ctx, "orders_status", http.MethodPost, path, token, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// --- Chat ---

func (c *Client) Chat(ctx context.Context, token, message string) (string, error) {
	var resp ChatResponse
	if err := c.do(ctx, "chat", http.MethodPost, "/api/chat", token, chatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// --- Ratings ---

// RateFood submits a rating for a food within a fulfilled order. The
// server rejects duplicates with a conflict whose body says so; that case
// is mapped onto ErrAlreadyRated.
func (c *Client) RateFood(ctx context.Context, token string, orderID, foodID int64, rating int) error {
	path := fmt.Sprintf("/api/foods/orders/%d/%d/rate?rating=%d", orderID, foodID, rating)
	err := c.do(ctx, "foods_rate", http.MethodPost, path, token, nil, nil)
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusConflict ||
		strings.Contains(strings.ToLower(apiErr.Body), "already rated")) {
		return fmt.Errorf("%w: %s", ErrAlreadyRated, apiErr.Body)
	}
	return err
}

// --- Driver ---

func (c *Client) DriverStats(ctx context.Context, username string) (*models.DriverStats, error) {
	var stats models.DriverStats
	path := "/api/driverStats?username=" + url.QueryEscape(username)
	if err := c.do(ctx, "driver_stats", http.MethodGet, path, "", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
