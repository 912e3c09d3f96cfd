package aicore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the external ai-core backend. It only consumes the
// contract: persistence, promotion of submissions and deprecation of
// superseded approvals all happen server-side, the client refetches.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ai-core returned status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) ListResultImages(ctx context.Context, page, limit int, status, search string) (*ImageList, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("status", status)
	q.Set("search", search)

	var list ImageList
	if err := c.do(ctx, http.MethodGet, "/result-images?"+q.Encode(), nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list result images: %w", err)
	}
	if list.Items == nil {
		list.Items = []ImageRecord{}
	}
	return &list, nil
}

func (c *Client) GetResultImageDetail(ctx context.Context, imageID string) (*ImageDetail, error) {
	var detail ImageDetail
	if err := c.do(ctx, http.MethodGet, "/result-images/"+url.PathEscape(imageID), nil, &detail); err != nil {
		return nil, fmt.Errorf("failed to get image detail: %w", err)
	}
	return &detail, nil
}

func (c *Client) SaveHumanAnnotation(ctx context.Context, imageID string, req SaveAnnotationRequest) error {
	path := "/result-images/" + url.PathEscape(imageID) + "/human-annotations"
	if err := c.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("failed to save annotation: %w", err)
	}
	return nil
}

func (c *Client) ApproveAnnotation(ctx context.Context, imageID, approvedBy string) error {
	path := "/result-images/" + url.PathEscape(imageID) + "/approve"
	if err := c.do(ctx, http.MethodPatch, path, ApproveRequest{ApprovedBy: approvedBy}, nil); err != nil {
		return fmt.Errorf("failed to approve annotation: %w", err)
	}
	return nil
}

func (c *Client) RejectAnnotation(ctx context.Context, imageID, rejectedBy, reason string) error {
	path := "/result-images/" + url.PathEscape(imageID) + "/reject"
	if err := c.do(ctx, http.MethodPatch, path, RejectRequest{RejectedBy: rejectedBy, Reason: reason}, nil); err != nil {
		return fmt.Errorf("failed to reject annotation: %w", err)
	}
	return nil
}

func (c *Client) DeprecateAnnotation(ctx context.Context, annotationID, reason string) error {
	path := "/annotations/" + url.PathEscape(annotationID) + "/deprecate"
	if err := c.do(ctx, http.MethodPatch, path, DeprecateRequest{Reason: reason}, nil); err != nil {
		return fmt.Errorf("failed to deprecate annotation: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	return decodeEnvelope(data, out)
}

// decodeEnvelope tolerates the gateway interceptor that wraps responses
// in a {data: ...} envelope: the inner object is used when present,
// otherwise the body decodes directly.
func decodeEnvelope(data []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Data) > 0 {
		if bytes.HasPrefix(bytes.TrimSpace(envelope.Data), []byte("{")) {
			data = envelope.Data
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
