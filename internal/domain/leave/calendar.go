package leave

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
)

// WriteCalendar renders approved requests as all-day iCalendar events.
func WriteCalendar(w io.Writer, requests []Request, generatedAt time.Time) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ets//leave calendar//EN")
	cal.SetXWRCalName("Approved leave")

	for _, r := range requests {
		event := cal.AddEvent(r.ID + "@ets")
		event.SetDtStampTime(generatedAt)
		event.SetSummary(fmt.Sprintf("%s - %s", r.EmployeeName, r.Type))
		event.SetAllDayStartAt(r.StartDate)
		// DTEND is exclusive for all-day events.
		event.SetAllDayEndAt(r.EndDate.AddDate(0, 0, 1))
		event.SetDescription(fmt.Sprintf("%d day(s): %s", r.Days, r.Reason))
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}
