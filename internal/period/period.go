// Package period computes the calendar windows of periodic budgets:
// when a weekly or monthly budget expires, how far into its window the
// clock is, and the Spanish labels shown to clients.
//
// Weeks run Monday to Sunday. A weekly budget created on a Sunday rolls
// to the following Sunday. All arithmetic happens in the Calculator's
// Location.
package period

import (
	"fmt"
	"math"
	"time"

	"github.com/JohanDJ0/restapi-gastos/internal/models"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Info describes where "now" sits inside a budget's current window.
type Info struct {
	Start           time.Time `json:"fecha_inicio"`
	End             time.Time `json:"fecha_fin"`
	DaysRemaining   int       `json:"dias_restantes"`
	PercentComplete float64   `json:"porcentaje_completado"`
	Description     string    `json:"descripcion"`
}

// Calculator evaluates periods against an injectable clock.
type Calculator struct {
	Now      func() time.Time
	Location *time.Location
}

// New returns a Calculator on the wall clock in the server's local zone.
func New() *Calculator {
	return &Calculator{Now: time.Now, Location: time.Local}
}

// NewInLocation returns a wall-clock Calculator for loc.
func NewInLocation(loc *time.Location) *Calculator {
	return &Calculator{Now: time.Now, Location: loc}
}

func (c *Calculator) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Current returns the calculator's notion of now in its location.
func (c *Calculator) Current() time.Time {
	if c.Now == nil {
		return time.Now().In(c.loc())
	}
	return c.Now().In(c.loc())
}

func endOfDay(year int, month time.Month, d int, loc *time.Location) time.Time {
	return time.Date(year, month, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// Expiration returns the end of the window a budget created at createdAt
// belongs to. Custom budgets never expire and report ok=false.
func (c *Calculator) Expiration(kind models.BudgetKind, createdAt time.Time) (time.Time, bool) {
	t := createdAt.In(c.loc())
	switch kind {
	case models.BudgetKindWeekly:
		untilSunday := 7 - int(t.Weekday())
		return endOfDay(t.Year(), t.Month(), t.Day()+untilSunday, c.loc()), true
	case models.BudgetKindMonthly:
		// Day 0 of the next month is the last day of this one.
		return endOfDay(t.Year(), t.Month()+1, 0, c.loc()), true
	}
	return time.Time{}, false
}

// IsExpired reports whether now is at or past the budget's expiration.
func (c *Calculator) IsExpired(kind models.BudgetKind, createdAt time.Time) bool {
	exp, ok := c.Expiration(kind, createdAt)
	if !ok {
		return false
	}
	return !c.Current().Before(exp)
}

// IsNearExpiration reports whether expiration lies strictly in the future
// and no more than lookaheadDays away.
func (c *Calculator) IsNearExpiration(kind models.BudgetKind, createdAt time.Time, lookaheadDays float64) bool {
	exp, ok := c.Expiration(kind, createdAt)
	if !ok {
		return false
	}
	remaining := exp.Sub(c.Current()).Hours() / 24
	return remaining > 0 && remaining <= lookaheadDays
}

// DaysUntil returns the whole days, rounded up, from now until t.
func (c *Calculator) DaysUntil(t time.Time) int {
	return int(math.Ceil(t.Sub(c.Current()).Hours() / 24))
}

// WeekStart returns Monday 00:00 of the week containing t.
func (c *Calculator) WeekStart(t time.Time) time.Time {
	t = t.In(c.loc())
	back := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		back = 6
	}
	return time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, c.loc())
}

// MonthStart returns the first day of t's month at 00:00.
func (c *Calculator) MonthStart(t time.Time) time.Time {
	t = t.In(c.loc())
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc())
}

// Info computes the window annotation for periodic kinds.
func (c *Calculator) Info(kind models.BudgetKind, createdAt time.Time) (Info, bool) {
	end, ok := c.Expiration(kind, createdAt)
	if !ok {
		return Info{}, false
	}
	var start time.Time
	var desc string
	if kind == models.BudgetKindWeekly {
		start = c.WeekStart(createdAt)
		desc = fmt.Sprintf("Semana del %s al %s", start.Format("02/01/2006"), end.Format("02/01/2006"))
	} else {
		start = c.MonthStart(createdAt)
		desc = fmt.Sprintf("Mes de %s de %d", monthNames[start.Month()-1], start.Year())
	}

	now := c.Current()
	total := end.Sub(start)
	pct := 0.0
	if total > 0 {
		pct = float64(now.Sub(start)) / float64(total) * 100
	}
	pct = math.Max(0, math.Min(100, pct))

	return Info{
		Start:           start,
		End:             end,
		DaysRemaining:   c.DaysUntil(end),
		PercentComplete: math.Round(pct*100) / 100,
		Description:     desc,
	}, true
}

// Name is the short label of the window a budget created at createdAt
// belongs to.
func (c *Calculator) Name(kind models.BudgetKind, createdAt time.Time) string {
	switch kind {
	case models.BudgetKindWeekly:
		end, _ := c.Expiration(kind, createdAt)
		return fmt.Sprintf("Semana del %s al %s", c.WeekStart(createdAt).Format("02/01"), end.Format("02/01"))
	case models.BudgetKindMonthly:
		t := createdAt.In(c.loc())
		return fmt.Sprintf("%s de %d", monthNames[t.Month()-1], t.Year())
	}
	return "Período personalizado"
}
