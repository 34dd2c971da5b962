package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/julianstephens/shiftbell/internal/constants"
	apperrors "github.com/julianstephens/shiftbell/internal/errors"
	"github.com/julianstephens/shiftbell/internal/models"
)

// TrayPort talks to the shiftbell-tray companion, which owns the desktop
// notification center. The endpoint is re-resolved on every call because the
// tray may restart on a new port.
type TrayPort struct {
	client  *http.Client
	resolve func() (baseURL, secret string, err error)
}

// NewTrayPort discovers the tray through its lockfile in lockfileDir
// (empty means the tray's default directory).
func NewTrayPort(lockfileDir string) *TrayPort {
	return &TrayPort{
		client: &http.Client{Timeout: constants.TrayRequestTimeout},
		resolve: func() (string, string, error) {
			dir, err := TrayConfigDir(lockfileDir)
			if err != nil {
				return "", "", err
			}
			ep, err := readLockfile(filepath.Join(dir, constants.NotifierLockfileName))
			if err != nil {
				return "", "", err
			}
			return ep.baseURL(), ep.secret, nil
		},
	}
}

// NewHTTPPort targets a fixed endpoint. A nil client gets the default timeout.
func NewHTTPPort(baseURL, secret string, client *http.Client) *TrayPort {
	if client == nil {
		client = &http.Client{Timeout: constants.TrayRequestTimeout}
	}
	return &TrayPort{
		client:  client,
		resolve: func() (string, string, error) { return baseURL, secret, nil },
	}
}

type schedulePayload struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	FiresAt time.Time `json:"fires_at"`
}

type pendingResponse struct {
	Notifications []models.PendingNotification `json:"notifications"`
}

type permissionResponse struct {
	Status  Permission `json:"status"`
	Granted bool       `json:"granted"`
}

func (p *TrayPort) RequestPermission(ctx context.Context) (bool, error) {
	var resp permissionResponse
	status, err := p.do(ctx, http.MethodPost, "/v1/permission", nil, &resp)
	if err != nil {
		return false, err
	}
	if status == http.StatusForbidden {
		return false, nil
	}
	if err := statusError(status); err != nil {
		return false, err
	}
	return resp.Granted || resp.Status == PermissionGranted, nil
}

func (p *TrayPort) PermissionStatus(ctx context.Context) (Permission, error) {
	var resp permissionResponse
	status, err := p.do(ctx, http.MethodGet, "/v1/permission", nil, &resp)
	if err != nil {
		return "", err
	}
	if err := statusError(status); err != nil {
		return "", err
	}
	switch resp.Status {
	case PermissionGranted, PermissionDenied:
		return resp.Status, nil
	}
	return PermissionNotDetermined, nil
}

func (p *TrayPort) Schedule(ctx context.Context, n models.ScheduledNotification) error {
	payload := schedulePayload{
		ID:      n.ID,
		Type:    string(n.Type),
		Title:   n.Type.Title(),
		Body:    n.Body(),
		FiresAt: n.FiresAt,
	}
	status, err := p.do(ctx, http.MethodPut, "/v1/notifications/"+url.PathEscape(n.ID), payload, nil)
	if err != nil {
		return &apperrors.NotificationError{ID: n.ID, Op: "schedule", Err: fmt.Errorf("%w: %v", apperrors.ErrSchedulingFailed, err)}
	}
	if err := statusError(status); err != nil {
		return &apperrors.NotificationError{ID: n.ID, Op: "schedule", Err: err}
	}
	return nil
}

func (p *TrayPort) Cancel(ctx context.Context, id string) error {
	status, err := p.do(ctx, http.MethodDelete, "/v1/notifications/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return &apperrors.NotificationError{ID: id, Op: "cancel", Err: fmt.Errorf("%w: %v", apperrors.ErrSchedulingFailed, err)}
	}
	if status == http.StatusNotFound {
		return nil
	}
	if err := statusError(status); err != nil {
		return &apperrors.NotificationError{ID: id, Op: "cancel", Err: err}
	}
	return nil
}

func (p *TrayPort) ListPending(ctx context.Context) ([]models.PendingNotification, error) {
	var resp pendingResponse
	status, err := p.do(ctx, http.MethodGet, "/v1/notifications", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	if err := statusError(status); err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return resp.Notifications, nil
}

// do sends one request. A transport failure is an error; any HTTP status is returned
// for the caller to map. out is decoded only on 2xx.
func (p *TrayPort) do(ctx context.Context, method, path string, body, out any) (int, error) {
	baseURL, secret, err := p.resolve()
	if err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(constants.TraySecretHeader, secret)

	res, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil && err != io.EOF {
			return 0, fmt.Errorf("decode response: %w", err)
		}
	}
	return res.StatusCode, nil
}

func statusError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusForbidden:
		return apperrors.ErrPermissionDenied
	default:
		return fmt.Errorf("%w: tray responded with status %d", apperrors.ErrSchedulingFailed, status)
	}
}
