package interfaces

import (
	"context"

	"github.com/inboxpurge/inboxpurge/dto"
)

type AIService interface {
	ClassifySender(ctx context.Context, request dto.SenderClassificationRequest) (*dto.SenderClassificationResponse, error)
}
