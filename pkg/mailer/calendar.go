package mailer

import (
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// DeadlineInvite renders a single-event calendar for an allocation deadline,
// suitable for attaching to the publish-form announcement.
func DeadlineInvite(summary, description string, deadline time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId("-//acadflow//course allocation//EN")

	event := cal.AddEvent(uuid.New().String())
	event.SetCreatedTime(time.Now())
	event.SetDtStampTime(time.Now())
	event.SetStartAt(deadline.Add(-time.Hour))
	event.SetEndAt(deadline)
	event.SetSummary(summary)
	event.SetDescription(description)

	return cal.Serialize()
}
