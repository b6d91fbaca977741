package worker

import (
	"github.com/helpdesk-internal/chamados-service/internal/service"
)

// StartNotificationWorker registers notification handlers on the
// dispatcher. Delivery itself runs on the dispatcher's own goroutine.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
