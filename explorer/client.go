package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/entity"
)

var (
	ErrBadStatus       = errors.New("unexpected explorer response status")
	ErrInvalidResponse = errors.New("invalid explorer response")
)

const maxResponseSize = 1 << 20

// Client queries the hosted indexing API for message delivery status.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg *config.ExplorerConfig) *Client {
	return &Client{
		url:     strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
	}
}

// GetStatus fetches the indexed state of one message.
// A message the explorer hasn't indexed yet is reported as pending.
func (c *Client) GetStatus(ctx context.Context, messageID string, originChainID uint64) (*entity.DeliveryStatus, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("can't wait for explorer rate limit: %w", err)
	}

	defer ObserveDuration()()
	blob, err := c.get(ctx, messageID, originChainID)
	ObserveError(err)
	if err != nil {
		return nil, err
	}
	return parseStatus(blob)
}

func (c *Client) get(ctx context.Context, messageID string, originChainID uint64) ([]byte, error) {
	params := url.Values{}
	params.Set("module", "message")
	params.Set("action", "get-messages")
	params.Set("id", messageID)
	if originChainID != 0 {
		params.Set("origin-chain-id", strconv.FormatUint(originChainID, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("can't build explorer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("can't query explorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned %d: %w", resp.StatusCode, ErrBadStatus)
	}
	blob, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("can't read explorer response: %w", err)
	}
	return blob, nil
}

func parseStatus(blob []byte) (*entity.DeliveryStatus, error) {
	if !gjson.ValidBytes(blob) {
		return nil, ErrInvalidResponse
	}
	res := gjson.ParseBytes(blob)
	result := res.Get("result")
	if !result.IsArray() {
		// the explorer answers unknown ids with a status message instead of a list
		if res.Get("status").String() == "0" {
			return &entity.DeliveryStatus{Status: entity.MessageStatusPending}, nil
		}
		return nil, fmt.Errorf("result is not a list: %w", ErrInvalidResponse)
	}
	msg := result.Get("0")
	if !msg.Exists() {
		return &entity.DeliveryStatus{Status: entity.MessageStatusPending}, nil
	}

	status := &entity.DeliveryStatus{Status: parseMessageStatus(msg.Get("status").String())}
	if status.Status == entity.MessageStatusDelivered {
		if hash := msg.Get("destination.hash").String(); hash != "" {
			status.DestinationTxHash = &hash
		}
	}
	if body := msg.Get("body"); body.Exists() && body.String() != "" {
		v := body.String()
		status.Body = &v
	}
	return status, nil
}

// parseMessageStatus keeps "failing" pending: the relayer still retries it.
func parseMessageStatus(s string) entity.MessageStatus {
	switch strings.ToLower(s) {
	case "delivered":
		return entity.MessageStatusDelivered
	case "failed":
		return entity.MessageStatusFailed
	default:
		return entity.MessageStatusPending
	}
}
