package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-internal/chamados-service/internal/config"
	"github.com/helpdesk-internal/chamados-service/internal/events"
	apperrors "github.com/helpdesk-internal/chamados-service/pkg/util"
)

// Mail is a composed notification message.
type Mail struct {
	To      string
	From    string
	Subject string
	Body    string
}

// MailSender delivers composed messages. The transport is external to
// the core; the default implementation only logs.
type MailSender interface {
	Send(ctx context.Context, mail Mail) error
}

// LogSender writes the would-be mail to the log, mirroring the mock
// mode of the original system when no SMTP settings exist.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, mail Mail) error {
	s.Logger.Info("mail (mock delivery)",
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject),
		zap.String("body", mail.Body))
	return nil
}

// NotificationService consumes lifecycle events and composes the three
// mails of the system. Delivery failures are retried by the dispatcher
// and ultimately swallowed; they never reach the transition path.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     MailSender
	redis      *redis.Client
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. The redis client is
// optional; without it delivery dedupe is skipped.
func NewNotificationService(dispatcher events.Dispatcher, sender MailSender, redisClient *redis.Client, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		redis:      redisClient,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAccepted, n.handleTicketAccepted)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for created event", zap.String("event_id", event.ID))
		return nil
	}

	recipient := n.cfg.SupportInbox
	subject := fmt.Sprintf("Novo Chamado #%s - %s", payload.Ticket.ID, titleOrDefault(payload.Ticket.Title))
	if payload.Ticket.IsTask {
		recipient = n.cfg.TasksInbox
		subject = fmt.Sprintf("[TAREFA] #%s - %s", payload.Ticket.ID, titleOrDefault(payload.Ticket.Title))
	}

	body := fmt.Sprintf(
		"Um novo chamado foi aberto.\n\nID: %s\nUsuário: %s\nSetor: %s\nPrioridade: %s\nDescrição:\n%s\n",
		payload.Ticket.ID,
		payload.Owner,
		payload.Ticket.Department,
		priorityLabel(payload.Ticket.Priority),
		payload.Ticket.Description,
	)
	return n.send(ctx, event, Mail{To: recipient, From: n.cfg.EmailFrom, Subject: subject, Body: body})
}

func (n *NotificationService) handleTicketAccepted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAcceptedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for accepted event", zap.String("event_id", event.ID))
		return nil
	}

	deadline := "Não informado"
	if payload.Deadline != nil {
		deadline = payload.Deadline.Format("02/01/2006 15:04")
	}
	notes := payload.Notes
	if notes == "" {
		notes = "Sem observações."
	}
	body := fmt.Sprintf(
		"Olá,\n\nSeu chamado #%s foi aceito e está em andamento.\n\nObservação: %s\nPrazo Estimado: %s\n\nAtenciosamente,\nEquipe de TI\n",
		payload.TicketID, notes, deadline,
	)
	return n.send(ctx, event, Mail{
		To:      payload.OwnerContact,
		From:    n.cfg.EmailFrom,
		Subject: fmt.Sprintf("Chamado #%s em Andamento", payload.TicketID),
		Body:    body,
	})
}

func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketResolvedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for resolved event", zap.String("event_id", event.ID))
		return nil
	}

	body := fmt.Sprintf(
		"Olá,\n\nSeu chamado #%s foi marcado como resolvido.\n\nNotas de Resolução:\n%s\n\nAtenciosamente,\nEquipe de TI\n",
		payload.TicketID, payload.Notes,
	)
	return n.send(ctx, event, Mail{
		To:      payload.OwnerContact,
		From:    n.cfg.EmailFrom,
		Subject: fmt.Sprintf("Chamado #%s Resolvido", payload.TicketID),
		Body:    body,
	})
}

func (n *NotificationService) send(ctx context.Context, event events.Event, mail Mail) error {
	if mail.To == "" {
		return nil
	}
	if !n.claimDelivery(ctx, event) {
		n.logger.Debug("notification already delivered, skipping",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return nil
	}
	if err := n.sender.Send(ctx, mail); err != nil {
		n.releaseDelivery(ctx, event)
		dispatchErr := apperrors.NewDispatchFailed(err)
		n.logger.Error("mail delivery failed",
			zap.String("event_id", event.ID),
			zap.String("to", mail.To),
			zap.Error(dispatchErr))
		return dispatchErr
	}
	return nil
}

// claimDelivery takes a one-shot per-event delivery key in redis so a
// retried worker never double-sends. Without redis, or when redis is
// down, delivery proceeds unclaimed.
func (n *NotificationService) claimDelivery(ctx context.Context, event events.Event) bool {
	if n.redis == nil {
		return true
	}
	key := deliveryKey(event)
	claimed, err := n.redis.SetNX(ctx, key, time.Now().Format(time.RFC3339), n.cfg.DedupeTTL()).Result()
	if err != nil {
		n.logger.Debug("delivery dedupe unavailable", zap.Error(err))
		return true
	}
	return claimed
}

func (n *NotificationService) releaseDelivery(ctx context.Context, event events.Event) {
	if n.redis == nil {
		return
	}
	_ = n.redis.Del(ctx, deliveryKey(event)).Err()
}

func deliveryKey(event events.Event) string {
	return fmt.Sprintf("notify:%s:%s", event.Type, event.ID)
}

func titleOrDefault(title string) string {
	if title == "" {
		return "Sem título"
	}
	return title
}

func priorityLabel(priority bool) string {
	if priority {
		return "ALTA"
	}
	return "normal"
}
