/*
notify.go - Outbound closure notification contract

PURPOSE:
  The engine constructs a structured payload when a journey is force-closed;
  delivery (email, chat, webhook) is an external concern. The Notifier is
  injected into the scheduler so the engine carries no global notifier state
  and tests can capture payloads with a fake.

SEE ALSO:
  - scheduler.go: The only producer of closure notifications
*/
package api

import (
	"context"
	"log"
	"time"

	"github.com/dorodrig/journey-engine/journey"
)

// ClosureNotification is the payload handed to the external notification
// channel when a journey closes without a manual clock-out.
type ClosureNotification struct {
	EmployeeName  string
	EmployeeEmail string
	Date          time.Time
	EntryTime     time.Time
	ExitTime      time.Time
	HoursWorked   float64
	ClosureReason string
}

// Notifier consumes closure events. Implementations deliver out-of-band.
type Notifier interface {
	NotifyClosure(ctx context.Context, n ClosureNotification) error
}

// LogNotifier writes closure events to the process log. Default when no
// external channel is wired.
type LogNotifier struct{}

func (LogNotifier) NotifyClosure(_ context.Context, n ClosureNotification) error {
	log.Printf("[Notify] journey closed: %s <%s> %s entry=%s exit=%s hours=%.2f reason=%q",
		n.EmployeeName, n.EmployeeEmail,
		n.Date.Format("2006-01-02"),
		n.EntryTime.Format(time.RFC3339),
		n.ExitTime.Format(time.RFC3339),
		n.HoursWorked, n.ClosureReason)
	return nil
}

// buildClosureNotification assembles the payload from a closed journey and
// its directory record.
func buildClosureNotification(emp journey.Employee, j journey.Journey) ClosureNotification {
	entry, _ := j.EntryTime()
	exit, _ := j.ExitTime()
	hours, _ := j.HoursWorked.Float64()

	return ClosureNotification{
		EmployeeName:  emp.Name,
		EmployeeEmail: emp.Email,
		Date:          j.Date,
		EntryTime:     entry,
		ExitTime:      exit,
		HoursWorked:   hours,
		ClosureReason: j.ClosureReason,
	}
}
