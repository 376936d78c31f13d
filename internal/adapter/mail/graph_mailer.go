package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/haninge-digit/zeebe-report/internal/config"
	"github.com/haninge-digit/zeebe-report/internal/domain"
	"github.com/haninge-digit/zeebe-report/internal/infra/logger"
)

const mailSendRole = "Mail.Send"

// GraphMailer sends report mails through the Microsoft Graph sendMail API
// using an app registration (client credential flow).
type GraphMailer struct {
	cfg        config.MailConfig
	tokens     *tokenCache
	httpClient *http.Client
	logger     logger.Logger
	now        func() time.Time
}

// tokenCache holds the client credential token between sends. A new token
// is fetched with the caller's context once the cached one expires.
type tokenCache struct {
	mu     sync.Mutex
	cfg    *clientcredentials.Config
	client *http.Client
	token  *oauth2.Token
}

// Token returns the cached token or fetches a new one
func (c *tokenCache) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token, nil
	}
	token, err := c.cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.client))
	if err != nil {
		return nil, err
	}
	c.token = token
	return token, nil
}

// graphError is the error payload returned by Graph
type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGraphMailer creates a new Graph backed Mailer. Missing credentials are
// not reported here; every Send then fails with MAIL_3001.
func NewGraphMailer(cfg config.MailConfig, log logger.Logger) *GraphMailer {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	m := &GraphMailer{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log.WithFields(map[string]interface{}{"component": "mail"}),
		now:        time.Now,
	}

	if cfg.TenantID != "" && cfg.ClientID != "" && cfg.ClientSecret != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", cfg.AuthorityURL, url.PathEscape(cfg.TenantID)),
			Scopes:       []string{graphScope(cfg.GraphURL)},
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		m.tokens = &tokenCache{cfg: cc, client: httpClient}
	}

	return m
}

// Send builds the MIME message and posts it to /users/{principal}/sendMail
func (m *GraphMailer) Send(ctx context.Context, subject, html string) error {
	raw, err := Message{
		From:     m.cfg.From,
		To:       m.cfg.Recipient,
		Subject:  subject,
		Fallback: FallbackText(m.cfg.SupportAddress),
		HTML:     html,
		Date:     m.now(),
	}.Build()
	if err != nil {
		return domain.ErrMailBuild(err)
	}

	if m.tokens == nil {
		return domain.ErrMailAuth("AD_TENANT_ID, AD_CLIENT_ID and AD_CLIENT_SECRET must be set", nil)
	}

	token, err := m.tokens.Token(ctx)
	if err != nil {
		return domain.ErrMailAuth(describeTokenError(err), err)
	}
	m.inspectRoles(ctx, token.AccessToken)

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", m.cfg.GraphURL, url.PathEscape(m.cfg.SenderPrincipal))
	body := base64.StdEncoding.EncodeToString(raw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return domain.ErrMailTransport(err)
	}
	req.Header.Set("Content-Type", "text/plain")
	token.SetAuthHeader(req)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return domain.ErrMailTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		m.logger.Info(ctx, "Report mail sent", map[string]interface{}{
			"recipient": m.cfg.Recipient,
			"subject":   subject,
			"status":    resp.StatusCode,
			"size":      len(raw),
		})
		return nil
	}

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var gerr graphError
	if err := json.Unmarshal(payload, &gerr); err != nil || gerr.Error.Code == "" {
		return domain.ErrMailRejected(resp.StatusCode, "", strings.TrimSpace(string(payload)))
	}
	return domain.ErrMailRejected(resp.StatusCode, gerr.Error.Code, gerr.Error.Message)
}

// inspectRoles logs the application roles granted in the access token. Azure
// AD tokens are JWTs; opaque tokens are skipped.
func (m *GraphMailer) inspectRoles(ctx context.Context, accessToken string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		m.logger.Debug(ctx, "Access token is not a JWT, skipping role check", nil)
		return
	}

	roles := tokenRoles(claims)
	m.logger.Debug(ctx, "Obtained Graph access token", map[string]interface{}{
		"roles": roles,
		"app":   claims["appid"],
	})

	for _, role := range roles {
		if role == mailSendRole {
			return
		}
	}
	m.logger.Warn(ctx, "Access token lacks the Mail.Send role", map[string]interface{}{"roles": roles})
}

func tokenRoles(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"].([]interface{})
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

func describeTokenError(err error) string {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		return fmt.Sprintf("Status: %d, Code: %s, Description: %s", status, rerr.ErrorCode, rerr.ErrorDescription)
	}
	return "token request failed"
}

// graphScope returns the .default scope of the Graph resource behind graphURL
func graphScope(graphURL string) string {
	u, err := url.Parse(graphURL)
	if err != nil || u.Host == "" {
		return "https://graph.microsoft.com/.default"
	}
	return u.Scheme + "://" + u.Host + "/.default"
}
