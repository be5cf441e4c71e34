// Package calendar proyecta la grilla mensual de citas: semanas completas
// (con días de los meses vecinos), marca "hoy" contra un now inyectado
// y agrupa las citas por día con tope de visibles por celda.
package calendar

import (
	"fmt"
	"time"
)

// DefaultMaxPerDay es el tope de citas que se muestran explícitamente por celda.
const DefaultMaxPerDay = 2

// Entry es lo mínimo que la grilla necesita de una cita.
// At en cero representa un timestamp que no se pudo parsear: se omite.
type Entry struct {
	ID    string
	Title string
	At    time.Time
}

type Options struct {
	WeekStart time.Weekday   // time.Sunday por defecto (zero value)
	Location  *time.Location // nil => UTC
	MaxPerDay int            // <=0 => DefaultMaxPerDay
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.MaxPerDay <= 0 {
		o.MaxPerDay = DefaultMaxPerDay
	}
	if o.WeekStart < time.Sunday || o.WeekStart > time.Saturday {
		o.WeekStart = time.Sunday
	}
	return o
}

type Cell struct {
	Date    time.Time // inicio del día en Options.Location
	InMonth bool
	IsToday bool

	// Entries son todas las citas del día, en el orden recibido.
	Entries []Entry
	// Visible son las primeras MaxPerDay de Entries.
	Visible []Entry
	// Overflow = len(Entries) - MaxPerDay cuando es positivo.
	Overflow int
}

// OverflowLabel es el indicador "+N mais"; vacío si no hay overflow.
func (c Cell) OverflowLabel() string {
	if c.Overflow <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d mais", c.Overflow)
}

type Month struct {
	// Reference es el día 1 del mes proyectado.
	Reference time.Time
	GridStart time.Time
	GridEnd   time.Time

	Cells []Cell

	// Skipped cuenta entradas sin timestamp válido.
	Skipped int
}

// Weeks parte Cells en filas de 7.
func (m Month) Weeks() [][]Cell {
	out := make([][]Cell, 0, len(m.Cells)/7)
	for i := 0; i+7 <= len(m.Cells); i += 7 {
		out = append(out, m.Cells[i:i+7])
	}
	return out
}

type dayKey struct {
	y int
	m time.Month
	d int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y: y, m: m, d: d}
}

// Project arma la grilla del mes que contiene ref.
// now solo se usa para IsToday; no se lee el reloj del sistema.
func Project(ref, now time.Time, entries []Entry, opts Options) Month {
	opts = opts.withDefaults()
	loc := opts.Location

	first, start, last := layout(ref, opts)
	n := daysBetween(start, last) + 1
	sy, sm, sd := start.Date()

	byDay, skipped := groupByDay(entries, loc)
	today := keyOf(now.In(loc))

	cells := make([]Cell, 0, n)
	for i := 0; i < n; i++ {
		d := startOfDay(sy, sm, sd+i, loc)
		k := keyOf(d)

		c := Cell{
			Date:    d,
			InMonth: SameMonth(d, first),
			IsToday: k == today,
			Entries: byDay[k],
		}
		if len(c.Entries) > opts.MaxPerDay {
			c.Visible = c.Entries[:opts.MaxPerDay]
			c.Overflow = len(c.Entries) - opts.MaxPerDay
		} else {
			c.Visible = c.Entries
		}
		cells = append(cells, c)
	}

	return Month{
		Reference: first,
		GridStart: cells[0].Date,
		GridEnd:   cells[len(cells)-1].Date,
		Cells:     cells,
		Skipped:   skipped,
	}
}

// Bounds devuelve el primer día de la grilla y el día siguiente al último
// (fin exclusivo), útil para pedir al repositorio solo lo visible.
func Bounds(ref time.Time, opts Options) (start, end time.Time) {
	opts = opts.withDefaults()
	_, start, last := layout(ref, opts)
	y, m, d := last.Date()
	return start, startOfDay(y, m, d+1, opts.Location)
}

// layout calcula el día 1 del mes y los extremos de la grilla: semanas
// completas desde la que contiene el día 1 hasta la que contiene el último.
func layout(ref time.Time, opts Options) (first, start, last time.Time) {
	first = FirstOfMonth(ref.In(opts.Location))
	start = StartOfWeek(first, opts.WeekStart)
	last = EndOfWeek(LastOfMonth(first), opts.WeekStart)
	return first, start, last
}

// groupByDay agrupa una sola vez por fecha (en loc), respetando el orden de entrada.
func groupByDay(entries []Entry, loc *time.Location) (map[dayKey][]Entry, int) {
	out := make(map[dayKey][]Entry, len(entries))
	skipped := 0
	for _, e := range entries {
		if e.At.IsZero() {
			skipped++
			continue
		}
		k := keyOf(e.At.In(loc))
		out[k] = append(out[k], e)
	}
	return out, skipped
}
