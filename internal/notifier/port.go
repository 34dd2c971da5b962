// Package notifier adapts OS notification services to the Port contract the reconciler drives.
package notifier

import (
	"context"

	"github.com/julianstephens/shiftbell/internal/models"
)

// Permission is the user's notification authorization state.
type Permission string

const (
	PermissionGranted       Permission = "granted"
	PermissionDenied        Permission = "denied"
	PermissionNotDetermined Permission = "not_determined"
)

// Port is the capability interface over an OS notification service.
//
// Schedule overwrites an id that is already scheduled. It returns an error
// matching errors.ErrPermissionDenied when unauthorized and errors.ErrSchedulingFailed
// for any other failure. Cancel of an unknown id succeeds. ListPending reports the
// service's own state, foreign ids included.
type Port interface {
	RequestPermission(ctx context.Context) (bool, error)
	PermissionStatus(ctx context.Context) (Permission, error)
	Schedule(ctx context.Context, n models.ScheduledNotification) error
	Cancel(ctx context.Context, id string) error
	ListPending(ctx context.Context) ([]models.PendingNotification, error)
}
