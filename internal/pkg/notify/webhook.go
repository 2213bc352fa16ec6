// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/invitekit/pkg/id"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/go-arcade/invitekit/pkg/trace/inject"
	"github.com/go-resty/resty/v2"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideNotifier)

const (
	EventSweepReport = "sweep.report"
	EventExpiring    = "accounts.expiring"
)

type Conf struct {
	URL         string        `mapstructure:"url"`
	BearerToken string        `mapstructure:"bearerToken"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryCount  int           `mapstructure:"retryCount"`
	// ExpiringDays is the look-ahead window of the digest sent after a sweep.
	ExpiringDays int `mapstructure:"expiringDays"`
}

func (c *Conf) SetDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	if c.ExpiringDays <= 0 {
		c.ExpiringDays = 7
	}
}

// Event is the JSON body posted to the webhook.
type Event struct {
	// Id lets receivers drop retried deliveries
	Id     string    `json:"id"`
	Type   string    `json:"type"`
	SentAt time.Time `json:"sentAt"`
	Data   any       `json:"data"`
}

type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, eventType string, data any) error
}

// WebhookNotifier posts events as JSON to a single URL.
type WebhookNotifier struct {
	url    string
	client *resty.Client
}

func NewWebhookNotifier(conf *Conf) *WebhookNotifier {
	client := resty.New().
		SetTimeout(conf.Timeout).
		SetRetryCount(conf.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetTransport(inject.Transport(http.DefaultTransport)).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	if conf.BearerToken != "" {
		client.SetAuthToken(conf.BearerToken)
	}
	return &WebhookNotifier{url: conf.URL, client: client}
}

func ProvideNotifier(conf *Conf) Notifier {
	return NewWebhookNotifier(conf)
}

func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

func (n *WebhookNotifier) Notify(ctx context.Context, eventType string, data any) error {
	if !n.Enabled() {
		return nil
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(Event{Id: id.ShortId(), Type: eventType, SentAt: time.Now().UTC(), Data: data}).
		Post(n.url)
	if err != nil {
		log.Errorw("webhook send request failed", "event", eventType, "error", err)
		return fmt.Errorf("failed to send %s: %w", eventType, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		log.Errorw("webhook request failed", "event", eventType, "statusCode", resp.StatusCode(), "response", resp.String())
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode())
	}
	log.Debugw("webhook delivered", "event", eventType)
	return nil
}
