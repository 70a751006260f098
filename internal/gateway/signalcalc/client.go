package signalcalc

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 4096

// Config 描述信号计算服务的访问方式。
type Config struct {
	APIURL             string
	APIToken           string
	Username           string
	Password           string
	TimeoutSeconds     int
	InsecureSkipVerify bool
}

// Client wraps the signal-calculation service REST API. Responses are passed
// through untouched so the dashboard sees exactly what the service returned.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	username   string
	password   string
	token      string
}

// NewClient constructs a signal service client from configuration.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.APIURL)
	if raw == "" {
		return nil, fmt.Errorf("signals.api_url 不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("解析 signals.api_url 失败: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true // #nosec G402
		}
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
		username:   strings.TrimSpace(cfg.Username),
		password:   strings.TrimSpace(cfg.Password),
		token:      strings.TrimSpace(cfg.APIToken),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Health probes the signal service health endpoint.
func (c *Client) Health(ctx context.Context) (json.RawMessage, int, error) {
	return c.doRequest(ctx, http.MethodGet, "/api/calculate-signals/health", nil)
}

// Calculate forwards a signal-calculation request body to the service.
func (c *Client) Calculate(ctx context.Context, body json.RawMessage) (json.RawMessage, int, error) {
	return c.doRequest(ctx, http.MethodPost, "/api/calculate-signals", body)
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload json.RawMessage) (json.RawMessage, int, error) {
	if c == nil {
		return nil, 0, fmt.Errorf("signalcalc client 未初始化")
	}
	endpoint, err := c.resolveEndpoint(path)
	if err != nil {
		return nil, 0, err
	}

	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, 0, fmt.Errorf("构造请求失败: %w", err)
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("调用信号服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if len(data) == 0 {
			return nil, resp.StatusCode, fmt.Errorf("信号服务返回错误: %s", resp.Status)
		}
		return nil, resp.StatusCode, fmt.Errorf("信号服务返回错误(%s): %s", resp.Status, strings.TrimSpace(string(data)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("读取信号服务响应失败: %w", err)
	}
	if len(data) == 0 {
		data = []byte("{}")
	}
	return json.RawMessage(data), resp.StatusCode, nil
}

func (c *Client) resolveEndpoint(path string) (*url.URL, error) {
	if c.baseURL == nil {
		return nil, fmt.Errorf("信号服务地址未设置")
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = "/"
	}
	ref := &url.URL{Path: strings.TrimLeft(trimmed, "/")}
	base := *c.baseURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(ref), nil
}
