package zever

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gridwatch/zevercloud/pkg/common"
	"github.com/gridwatch/zevercloud/pkg/log"
)

// DefaultBaseURL is the public host for the ZeverCloud API.
const DefaultBaseURL = "https://api.general.zevercloud.cn"

// getter issues one authenticated GET against the cloud and decodes the JSON
// body into dest. Every facade operation goes through this, so tests can
// substitute a fake and count calls.
type getter interface {
	get(ctx context.Context, endpoint string, params url.Values, dest interface{}) error
}

// transport signs and performs requests. The app key and secret ride along
// on every request via the X-Ca headers; the api key is a query parameter
// added by the caller, so all three credentials are attached to each call.
type transport struct {
	client    *http.Client
	baseURL   string
	appKey    string
	appSecret string
}

func newTransport(appKey, appSecret string) *transport {
	return &transport{
		client:    common.HTTPClient(time.Minute),
		baseURL:   DefaultBaseURL,
		appKey:    appKey,
		appSecret: appSecret,
	}
}

// sign computes the X-Ca-Signature header for a request line: HMAC-SHA256
// over the method, accept type, the signed headers, and the path with query,
// keyed with the app secret. The three blank lines stand in for the
// Content-MD5, Content-Type and Date headers, which are empty on a GET.
func (t *transport) sign(pathAndQuery string) string {
	payload := "GET\napplication/json\n\n\n\n" +
		"X-Ca-Key:" + t.appKey + "\n" +
		pathAndQuery
	mac := hmac.New(sha256.New, []byte(t.appSecret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (t *transport) get(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	pathAndQuery := endpoint
	if len(params) > 0 {
		pathAndQuery += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+pathAndQuery, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Ca-Key", t.appKey)
	req.Header.Set("X-Ca-Signature-Headers", "X-Ca-Key")
	req.Header.Set("X-Ca-Signature", t.sign(pathAndQuery))

	log.Ctx(ctx).DebugContext(ctx, "zevercloud request", slog.String("endpoint", endpoint))

	resp, err := t.client.Do(req)
	if err != nil {
		return &ConnectivityError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectivityError{Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		// The gateway reports signing and quota problems as a JSON object
		// with a message field; surface it when present.
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			apiErr.Message = payload.Message
		}
		log.Ctx(ctx).ErrorContext(ctx, "zevercloud api error",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message),
		)
		return apiErr
	}

	if err := json.Unmarshal(body, dest); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode zevercloud response",
			slog.String("endpoint", endpoint),
			slog.Any("error", err),
		)
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}
