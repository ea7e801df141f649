package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"registrar/internal/registration/models"
)

// Service composes and delivers the notifications for each registration
// event. Delivery failures of one recipient group do not stop the others.
type Service struct {
	composer *Composer
	notifier Notifier
	logger   *slog.Logger
}

func NewService(composer *Composer, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{composer: composer, notifier: notifier, logger: logger}
}

func (s *Service) RegistrationReceived(ctx context.Context, reg *models.Registration) error {
	msgs, err := s.composer.RegistrationReceived(reg)
	if err != nil {
		return err
	}
	return s.send(ctx, reg.RID, msgs)
}

func (s *Service) StatusChanged(ctx context.Context, reg *models.Registration) error {
	msgs, err := s.composer.StatusChanged(reg)
	if err != nil {
		return err
	}
	return s.send(ctx, reg.RID, msgs)
}

func (s *Service) MatrixStatusChanged(ctx context.Context, reg *models.Registration, account *Account) error {
	msgs, err := s.composer.MatrixStatusChanged(reg, account)
	if err != nil {
		return err
	}
	return s.send(ctx, reg.RID, msgs)
}

func (s *Service) send(ctx context.Context, rid string, msgs []Message) error {
	var errs []error
	for _, msg := range msgs {
		if err := s.notifier.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notify %q: %w", msg.Subject, err))
		}
	}
	if len(msgs) == 0 {
		s.logger.DebugContext(ctx, "no recipients for notification", "rid", rid)
	}
	return errors.Join(errs...)
}
