package stores

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/types"
)

type CelluleStore struct {
	*Resource[types.Cellule]
}

func NewCelluleStore(deps Deps) *CelluleStore {
	return &CelluleStore{NewResource(deps, ResourceConfig[types.Cellule]{
		Path:    "/API/cellules",
		ListKey: "cells",
		ItemKey: "cell",
		ID:      func(c types.Cellule) int { return c.ID },
		Messages: Messages{
			Fetch:  "Failed to load cellules",
			Create: "Failed to create cellule",
			Update: "Failed to update cellule",
			Delete: "Failed to delete cellule",
		},
	})}
}

// Members lists the users of a cellule.
func (s *CelluleStore) Members(ctx context.Context, id int) ([]types.User, error) {
	req := apiclient.Request{Method: http.MethodGet, Path: s.itemPath(id) + "/users"}
	resp, err := s.call(ctx, req, "Failed to load cellule members")
	if err != nil {
		return nil, err
	}
	users, _, err := apiclient.DecodeKey[[]types.User](resp.Body, "users")
	if err != nil {
		return nil, err
	}
	return users, nil
}

// RemoveMember takes a user out of a cellule.
func (s *CelluleStore) RemoveMember(ctx context.Context, id, userID int) error {
	req := apiclient.Request{Method: http.MethodDelete, Path: s.itemPath(id) + "/users/" + strconv.Itoa(userID)}
	_, err := s.call(ctx, req, "Failed to remove member")
	return err
}
