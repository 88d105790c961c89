package ports

import (
	"context"

	"github.com/sa6mwa/funidl/internal/app/model"
)

type ForConfiguring interface {
	Load(ctx context.Context) (*model.Config, error)
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
}
