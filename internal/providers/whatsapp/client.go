// Package whatsapp sends invoice documents through the WhatsApp Business
// Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Sender delivers a document to a phone number.
type Sender interface {
	SendDocument(ctx context.Context, msg Document) (string, error)
}

type Document struct {
	// To is the recipient in international format, digits only or with a leading +.
	To          string
	FileName    string
	Caption     string
	ContentType string
	Body        []byte
}

type Config struct {
	APIURL        string
	PhoneNumberID string
	APIKey        string
	Timeout       time.Duration
}

var ErrNotConfigured = errors.New("whatsapp_not_configured")

// APIError is a non-2xx answer from the Cloud API.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api: status %d code %d: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log.Named("whatsapp.client"),
	}
}

// SendDocument uploads the file as media and sends it as a document
// message. It returns the message id.
func (c *Client) SendDocument(ctx context.Context, doc Document) (string, error) {
	if c.cfg.APIURL == "" || c.cfg.PhoneNumberID == "" || c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	to := strings.TrimPrefix(strings.TrimSpace(doc.To), "+")
	if to == "" {
		return "", errors.New("whatsapp: recipient is required")
	}

	mediaID, err := c.uploadMedia(ctx, doc)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "document",
		"document": map[string]string{
			"id":       mediaID,
			"filename": doc.FileName,
			"caption":  doc.Caption,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := c.do(ctx, "messages", "application/json", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", errors.New("whatsapp: response carried no message id")
	}

	c.log.Info("document sent",
		zap.String("message_id", resp.Messages[0].ID),
		zap.String("file_name", doc.FileName),
	)
	return resp.Messages[0].ID, nil
}

func (c *Client) uploadMedia(ctx context.Context, doc Document) (string, error) {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", err
	}
	if err := w.WriteField("type", contentType); err != nil {
		return "", err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.FileName))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(doc.Body); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "media", w.FormDataContentType(), &buf, &resp); err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	if resp.ID == "" {
		return "", errors.New("whatsapp: media upload returned no id")
	}
	return resp.ID, nil
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	url := fmt.Sprintf("%s/%s/%s", c.cfg.APIURL, c.cfg.PhoneNumberID, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	return json.Unmarshal(raw, out)
}
