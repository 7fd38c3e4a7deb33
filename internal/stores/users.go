package stores

import (
	"context"
	"net/http"
	"strings"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
)

// ErrReasonRequired is returned when a rejection has no reason.
var ErrReasonRequired = errors.New("a rejection reason is required")

// UserStore caches member accounts. Accounts are created by sign-up on
// the member side, so there is no Create here.
type UserStore struct {
	*Resource[types.User]
}

func NewUserStore(deps Deps) *UserStore {
	return &UserStore{NewResource(deps, ResourceConfig[types.User]{
		Path:    "/API/users",
		ListKey: "users",
		ItemKey: "user",
		ID:      func(u types.User) int { return u.ID },
		Messages: Messages{
			Fetch:  "Failed to load users",
			Update: "Failed to update user",
			Delete: "Failed to delete user",
		},
	})}
}

// Get fetches one user. The backend has answered under both "user" and
// "users"; either is accepted.
func (s *UserStore) Get(ctx context.Context, id int) (types.User, error) {
	resp, err := s.call(ctx, apiclient.Request{Method: http.MethodGet, Path: s.itemPath(id)}, "Failed to load user")
	if err != nil {
		return types.User{}, err
	}
	for _, key := range []string{"user", "users"} {
		user, present, err := apiclient.DecodeKey[types.User](resp.Body, key)
		if err != nil {
			return types.User{}, err
		}
		if present {
			return user, nil
		}
	}
	return types.User{}, errors.Errorf("user %d missing from response", id)
}

// Accept approves a pending account.
func (s *UserStore) Accept(ctx context.Context, id int) error {
	req := apiclient.Request{Method: http.MethodPut, Path: s.itemPath(id) + "/accept"}
	if _, err := s.call(ctx, req, "Failed to accept user"); err != nil {
		return err
	}
	s.patch(id, func(u *types.User) {
		u.Status = types.UserAllowed
		u.IsActive = true
		u.RejectionReason = ""
	})
	return nil
}

// Reject denies an account with the given reason.
func (s *UserStore) Reject(ctx context.Context, id int, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	req := apiclient.Request{
		Method:  http.MethodPut,
		Path:    s.itemPath(id) + "/reject",
		Payload: apiclient.JSON(map[string]string{"reason": reason}),
	}
	if _, err := s.call(ctx, req, "Failed to reject user"); err != nil {
		return err
	}
	s.patch(id, func(u *types.User) {
		u.Status = types.UserDenied
		u.IsActive = false
		u.RejectionReason = reason
	})
	return nil
}
