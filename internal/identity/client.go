// Package identity реализует клиент провайдера аутентификации —
// внешней системы, хранящей учётные данные (email и пароль) отдельно
// от профильного хранилища. Ядро оформления покупки использует клиент
// для создания учётной записи и для восстановления после гонки
// «осиротевшей» учётной записи: вход для получения существующего UID
// с немедленным выходом, сессия никогда не удерживается.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrAlreadyRegistered сигнализирует, что email уже зарегистрирован
// у провайдера: профильная строка при этом могла не записаться.
var ErrAlreadyRegistered = errors.New("email already registered")

// ErrInvalidCredentials возвращается, когда вход по паролю отклонён.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Client — HTTP-клиент провайдера аутентификации.
type Client struct {
	apiURL     string
	apiKey     string
	adminKey   string
	httpClient *http.Client
}

// NewClient создаёт новый клиент провайдера аутентификации.
// adminKey может быть пустым — тогда административный поиск по email
// недоступен и восстановление идёт через пробный вход.
func NewClient(apiURL, apiKey, adminKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		adminKey:   adminKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(method, path, bearer string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func decodeError(resp *http.Response) errorResponse {
	var e errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&e)
	return e
}

// CreateAccount регистрирует учётную запись у провайдера и возвращает её UID.
// Если email уже зарегистрирован, возвращает ErrAlreadyRegistered —
// это сигнал гонки «осиротевшей» учётной записи для вызывающей стороны.
func (c *Client) CreateAccount(ctx context.Context, email, password string, metadata map[string]any) (string, error) {
	const op = "identity.CreateAccount"

	req, err := c.newRequest(http.MethodPost, "/signup", "", signUpRequest{
		Email:    email,
		Password: password,
		Data:     metadata,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnprocessableEntity, http.StatusBadRequest, http.StatusConflict:
		e := decodeError(resp)
		if e.ErrorCode == "user_already_exists" || e.ErrorCode == "email_exists" {
			return "", fmt.Errorf("%s: %w", op, ErrAlreadyRegistered)
		}
		return "", fmt.Errorf("%s: provider rejected signup: %s", op, e.Msg)
	default:
		return "", fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var signUp signUpResponse
	if err := json.NewDecoder(resp.Body).Decode(&signUp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signUp.ID, nil
}

// SignIn выполняет вход по email и паролю и возвращает UID учётной записи
// вместе с токеном сессии. Отклонённый пароль — ErrInvalidCredentials.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, string, error) {
	const op = "identity.SignIn"

	req, err := c.newRequest(http.MethodPost, "/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized:
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	default:
		return "", "", fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token.User.ID, token.AccessToken, nil
}

// SignOut завершает сессию с переданным токеном.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	const op = "identity.SignOut"

	req, err := c.newRequest(http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	return nil
}

// LookupByEmail ищет UID учётной записи через административный API.
// Возвращает ok=false, если административный ключ не задан или провайдер
// такой поиск не поддерживает; тогда вызывающая сторона использует
// пробный вход как запасной путь.
func (c *Client) LookupByEmail(ctx context.Context, email string) (string, bool, error) {
	const op = "identity.LookupByEmail"

	if c.adminKey == "" {
		return "", false, nil
	}

	req, err := c.newRequest(http.MethodGet, "/admin/users?email="+url.QueryEscape(email), c.adminKey, nil)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusForbidden:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var users adminUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	for _, u := range users.Users {
		if u.Email == email {
			return u.ID, true, nil
		}
	}
	return "", false, nil
}
