package service

import (
	"context"
	"fmt"

	"github.com/target/mmk-user-module/internal/domain/model"
	apperrors "github.com/target/mmk-user-module/internal/errors"
	"github.com/target/mmk-user-module/internal/pipeline"
)

// Requester performs backend calls. *pipeline.Client is the production implementation.
type Requester interface {
	Do(ctx context.Context, req pipeline.Request, out any) error
}

var _ Requester = (*pipeline.Client)(nil)

// requireUserID rejects ids that are not positive integers before any network activity.
func requireUserID(id model.ID) (int64, error) {
	n, ok := id.Int64()
	if !ok || n <= 0 {
		if id.IsZero() {
			return 0, apperrors.ValidationField("id", "user id is required")
		}
		return 0, apperrors.ValidationField("id", fmt.Sprintf("user id %q is not a positive integer", id.String()))
	}
	return n, nil
}
