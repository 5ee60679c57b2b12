package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sofahub/sofahub-api/internal/constants"
)

var (
	ErrConfigInvalid   = errors.New("mpesa config invalid")
	ErrRequestFailed   = errors.New("mpesa request failed")
	ErrResponseInvalid = errors.New("mpesa response invalid")
	ErrCallbackInvalid = errors.New("mpesa callback invalid")
	ErrPhoneInvalid    = errors.New("mpesa phone number invalid")
	ErrRejected        = errors.New("mpesa request rejected")
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"

	transactionType = "CustomerPayBillOnline"
	timestampLayout = "20060102150405"
)

// ResultSuccess is the stkCallback ResultCode for a completed payment.
const ResultSuccess = 0

// Daraja timestamps are generated in Kenyan local time.
var nairobiTZ = time.FixedZone("EAT", 3*60*60)

var phonePattern = regexp.MustCompile(`^254[17]\d{8}$`)

// Config holds Daraja API credentials.
type Config struct {
	Environment    string // "sandbox" or "production"
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string // business short code (paybill)
	Passkey        string // Lipa na M-Pesa online passkey
	CallbackURL    string
	Timeout        time.Duration
}

func (c *Config) baseURL() string {
	if strings.EqualFold(strings.TrimSpace(c.Environment), "production") {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// ValidateConfig checks that the credential set is complete.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ConsumerKey) == "" {
		return fmt.Errorf("%w: consumer_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return fmt.Errorf("%w: consumer_secret is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Shortcode) == "" {
		return fmt.Errorf("%w: shortcode is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Passkey) == "" {
		return fmt.Errorf("%w: passkey is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.CallbackURL) == "" {
		return fmt.Errorf("%w: callback_url is required", ErrConfigInvalid)
	}
	return nil
}

// Client talks to the Daraja API. Access tokens are cached until shortly
// before expiry; all requests share one bounded HTTP client.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a Daraja client from validated config.
func NewClient(cfg Config) (*Client, error) {
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// AccessToken returns a cached OAuth token, fetching a fresh one when the
// cache is empty or about to expire.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	endpoint := c.cfg.baseURL() + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token http status %d", ErrRequestFailed, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrResponseInvalid)
	}

	ttl := 3599
	if n, err := strconv.Atoi(tokenResp.ExpiresIn); err == nil && n > 0 {
		ttl = n
	}

	c.token = tokenResp.AccessToken
	// Renew a minute early so in-flight requests never carry a stale token.
	c.tokenExpiry = time.Now().Add(time.Duration(ttl-60) * time.Second)
	return c.token, nil
}

// STKPushInput describes one payment prompt.
type STKPushInput struct {
	Phone            string // any accepted Kenyan format; normalized before sending
	Amount           int64  // whole KES, Daraja rejects fractional amounts
	AccountReference string
	Description      string
}

// STKPushResult is the synchronous acknowledgement of a push request.
type STKPushResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResponseCode      string
	CustomerMessage   string
}

// InitiateSTKPush sends an STK push prompt to the customer's phone. The
// returned CheckoutRequestID is the correlation key for the asynchronous
// callback.
func (c *Client) InitiateSTKPush(ctx context.Context, input STKPushInput) (*STKPushResult, error) {
	phone, err := NormalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrConfigInvalid)
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().In(nairobiTZ).Format(timestampLayout)
	payload := map[string]interface{}{
		"BusinessShortCode": c.cfg.Shortcode,
		"Password":          password(c.cfg.Shortcode, c.cfg.Passkey, timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   transactionType,
		"Amount":            input.Amount,
		"PartyA":            phone,
		"PartyB":            c.cfg.Shortcode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  input.AccountReference,
		"TransactionDesc":   input.Description,
	}

	body, err := c.postJSON(ctx, "/mpesa/stkpush/v1/processrequest", token, payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		MerchantRequestID string `json:"MerchantRequestID"`
		CheckoutRequestID string `json:"CheckoutRequestID"`
		ResponseCode      string `json:"ResponseCode"`
		ResponseDesc      string `json:"ResponseDescription"`
		CustomerMessage   string `json:"CustomerMessage"`
		ErrorMessage      string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.ErrorMessage)
	}
	if resp.ResponseCode != "0" {
		return nil, fmt.Errorf("%w: response code %s: %s", ErrRejected, resp.ResponseCode, resp.ResponseDesc)
	}
	if resp.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing checkout request id", ErrResponseInvalid)
	}

	return &STKPushResult{
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		ResponseCode:      resp.ResponseCode,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

// STKQueryResult is the answer to a push status query.
type STKQueryResult struct {
	ResponseCode string
	ResultCode   string
	ResultDesc   string
}

// QuerySTKStatus asks Daraja for the outcome of a previously initiated push.
// Used as a diagnostic when a callback never arrives.
func (c *Client) QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*STKQueryResult, error) {
	if strings.TrimSpace(checkoutRequestID) == "" {
		return nil, fmt.Errorf("%w: checkout request id is required", ErrConfigInvalid)
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().In(nairobiTZ).Format(timestampLayout)
	payload := map[string]interface{}{
		"BusinessShortCode": c.cfg.Shortcode,
		"Password":          password(c.cfg.Shortcode, c.cfg.Passkey, timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	body, err := c.postJSON(ctx, "/mpesa/stkpushquery/v1/query", token, payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ResponseCode string `json:"ResponseCode"`
		ResultCode   string `json:"ResultCode"`
		ResultDesc   string `json:"ResultDesc"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.ErrorMessage)
	}

	return &STKQueryResult{
		ResponseCode: resp.ResponseCode,
		ResultCode:   resp.ResultCode,
		ResultDesc:   resp.ResultDesc,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.baseURL()+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	// Daraja reports request-level errors with non-2xx plus a JSON body;
	// surface the body so callers can map errorMessage.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			ErrorMessage string `json:"errorMessage"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.ErrorMessage != "" {
			return nil, fmt.Errorf("%w: %s", ErrRejected, apiErr.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// password derives the Lipa na M-Pesa request password for one timestamp.
func password(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}

// NormalizePhone converts accepted Kenyan phone formats (+2547..., 07...,
// 01..., 2547...) to the canonical 254XXXXXXXXX wire form.
func NormalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")

	switch {
	case strings.HasPrefix(p, "+254"):
		p = "254" + p[4:]
	case strings.HasPrefix(p, "0") && len(p) == 10:
		p = "254" + p[1:]
	}

	if !phonePattern.MatchString(p) {
		return "", fmt.Errorf("%w: %q", ErrPhoneInvalid, phone)
	}
	return p, nil
}

// CallbackResult is the reconciliation payload extracted from an stkCallback.
type CallbackResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	AccountReference  string
	ResultCode        int
	ResultDesc        string
	Amount            float64
	ReceiptNumber     string
	TransactionDate   string
	Phone             string
}

// Success reports whether the customer completed the payment.
func (r *CallbackResult) Success() bool {
	return r.ResultCode == ResultSuccess
}

// OrderID extracts the order id embedded in the account reference. The
// reference is written before the payment prompt is sent, so it resolves
// orders whose checkout request id was never stored.
func (r *CallbackResult) OrderID() (uint, bool) {
	ref := strings.TrimSpace(r.AccountReference)
	if !strings.HasPrefix(ref, constants.AccountReferencePrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(ref, constants.AccountReferencePrefix), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ParseCallback decodes a Daraja stkCallback body. CallbackMetadata is only
// present on success; its absence is not an error.
func ParseCallback(body []byte) (*CallbackResult, error) {
	if len(body) == 0 {
		return nil, ErrCallbackInvalid
	}

	var envelope struct {
		Body struct {
			StkCallback struct {
				MerchantRequestID string `json:"MerchantRequestID"`
				CheckoutRequestID string `json:"CheckoutRequestID"`
				ResultCode        int    `json:"ResultCode"`
				ResultDesc        string `json:"ResultDesc"`
				CallbackMetadata  struct {
					Item []struct {
						Name  string      `json:"Name"`
						Value interface{} `json:"Value"`
					} `json:"Item"`
				} `json:"CallbackMetadata"`
			} `json:"stkCallback"`
		} `json:"Body"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallbackInvalid, err)
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing checkout request id", ErrCallbackInvalid)
	}

	result := &CallbackResult{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			if f, ok := toFloat(item.Value); ok {
				result.Amount = f
			}
		case "MpesaReceiptNumber":
			if s, ok := item.Value.(string); ok {
				result.ReceiptNumber = s
			}
		case "TransactionDate":
			result.TransactionDate = formatMetadataValue(item.Value)
		case "PhoneNumber":
			result.Phone = formatMetadataValue(item.Value)
		case "AccountReference":
			result.AccountReference = formatMetadataValue(item.Value)
		default:
			// Some gateway environments deliver the reference as an unnamed
			// item; a value carrying the reference prefix is taken as one.
			if result.AccountReference == "" {
				if s, ok := item.Value.(string); ok && strings.HasPrefix(s, constants.AccountReferencePrefix) {
					result.AccountReference = s
				}
			}
		}
	}
	return result, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// formatMetadataValue renders numeric metadata without an exponent or
// trailing fraction; Daraja sends dates and phone numbers as JSON numbers.
func formatMetadataValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
