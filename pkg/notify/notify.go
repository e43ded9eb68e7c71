package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/curation-works/metacat/pkg/catalog"
	"github.com/curation-works/metacat/pkg/observability"
)

// reviewRequest is the payload accepted by the email sender service's
// group-send endpoint.
type reviewRequest struct {
	RecipientGroup string `json:"recipient_group"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

// HTTPNotifier delivers review-requested notifications through the
// email sender service.
type HTTPNotifier struct {
	baseURL        string
	recipientGroup string
	client         *http.Client
	log            *observability.Logger
	metrics        *observability.Metrics
}

// Options configures an HTTPNotifier.
type Options struct {
	// RecipientGroup names the reviewer distribution group. Empty means
	// "Metadata Curators".
	RecipientGroup string

	Timeout time.Duration
	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// NewHTTPNotifier creates a notifier posting to the email sender
// service at baseURL.
func NewHTTPNotifier(baseURL string, opts Options) *HTTPNotifier {
	if opts.RecipientGroup == "" {
		opts.RecipientGroup = "Metadata Curators"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &HTTPNotifier{
		baseURL:        baseURL,
		recipientGroup: opts.RecipientGroup,
		client:         &http.Client{Timeout: opts.Timeout},
		log:            log,
		metrics:        opts.Metrics,
	}
}

// NotifyReviewRequested emails the reviewer group that a version was
// submitted for review.
func (n *HTTPNotifier) NotifyReviewRequested(ctx context.Context, entity *catalog.MetadataEntity, submitter catalog.User) error {
	payload := reviewRequest{
		RecipientGroup: n.recipientGroup,
		Subject:        reviewSubject(entity),
		Body:           reviewBody(entity, submitter),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/v1/email/group", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.count("failed")
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		n.count("failed")
		return fmt.Errorf("email sender service returned %d", resp.StatusCode)
	}

	n.count("sent")
	n.log.WithFields(map[string]interface{}{
		"meta_id":     entity.MetaID,
		"instance_id": entity.InstanceID,
	}).Info("review notification sent")
	return nil
}

func (n *HTTPNotifier) count(outcome string) {
	if n.metrics != nil {
		n.metrics.NotificationsTotal.WithLabelValues(outcome).Inc()
	}
}

// NopNotifier discards notifications. Used when no email sender service
// is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyReviewRequested(context.Context, *catalog.MetadataEntity, catalog.User) error {
	return nil
}

var _ catalog.Notifier = (*HTTPNotifier)(nil)
var _ catalog.Notifier = NopNotifier{}
