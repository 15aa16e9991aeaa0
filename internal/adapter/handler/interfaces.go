package handler

import (
	"context"

	"github.com/marcos-nsantos/bg-remover/internal/usecase/removal"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/handler_mocks.go -package=mocks

type RemovalService interface {
	Process(ctx context.Context, input removal.ProcessInput) (*removal.ProcessResult, error)
	Capability() removal.Capability
}
