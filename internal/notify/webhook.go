package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"
	"time"
)

// WebhookNotifier posts automation outcomes to an HTTP endpoint. The
// payload shape depends on the configured format; anything unrecognized
// falls back to the slack-style {"text": ...} body, which several other
// services also accept.
type WebhookNotifier struct {
	url    string
	format string
	extra  map[string]string
	client *http.Client
}

// NewWebhookNotifier builds a notifier for the given endpoint. extra
// carries format-specific parameters: "chat_id" for telegram, "template"
// for the custom format.
func NewWebhookNotifier(url, format string, extra map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		format: format,
		extra:  extra,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers the notification, returning an error on any non-2xx
// response so callers can log delivery failures.
func (w *WebhookNotifier) Send(n Notification) error {
	payload, err := w.payload(n)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}
	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *WebhookNotifier) payload(n Notification) (any, error) {
	line := summaryLine(n)
	switch w.format {
	case "feishu":
		return map[string]any{
			"msg_type": "text",
			"content":  map[string]string{"text": line},
		}, nil
	case "dingtalk":
		return map[string]any{
			"msgtype": "text",
			"text":    map[string]string{"content": line},
		}, nil
	case "telegram":
		return map[string]any{
			"chat_id":    w.extra["chat_id"],
			"text":       line,
			"parse_mode": "HTML",
		}, nil
	case "custom":
		return w.renderTemplate(n, line)
	default:
		return map[string]string{"text": line}, nil
	}
}

// renderTemplate executes the user-supplied template against the
// notification fields. The result must be valid JSON; it is sent as-is.
func (w *WebhookNotifier) renderTemplate(n Notification, line string) (any, error) {
	src := w.extra["template"]
	if src == "" {
		return nil, fmt.Errorf("webhook: custom format needs a template")
	}
	tmpl, err := template.New("webhook").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("webhook: parse template: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]string{
		"Title":   n.Title,
		"Message": n.Message,
		"Status":  n.Status,
		"Text":    line,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook: render template: %w", err)
	}
	var payload any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		return nil, fmt.Errorf("webhook: rendered template is not valid JSON: %w", err)
	}
	return payload, nil
}

// summaryLine flattens a notification to one line, with the terminal
// status appended when present.
func summaryLine(n Notification) string {
	if n.Status == "" {
		return fmt.Sprintf("%s: %s", n.Title, n.Message)
	}
	return fmt.Sprintf("%s: %s [%s]", n.Title, n.Message, n.Status)
}

// Name identifies this notifier in multi-notifier names.
func (w *WebhookNotifier) Name() string { return "webhook" }
