package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gregory-j-wilson/Suplica/internal/app"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

const barWidth = 20

var printer = message.NewPrinter(language.Spanish)

func number(n model.Count) string {
	return printer.Sprintf("%d", int(n))
}

// bar draws progress as [#####-----] 50%.
func bar(pct float64) string {
	n := int(pct * barWidth / 100)
	if n > barWidth {
		n = barWidth
	}

	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("#", n), strings.Repeat("-", barWidth-n), pct)
}

// distance formats km with the bearing point, or a dash without a location.
func distance(v *app.MissionaryView) string {
	if v.Distance < 0 {
		return "—"
	}

	km := v.Distance / 1000

	if km < 10 {
		return printer.Sprintf("%.1f km %s", km, model.Compass(v.Bearing))
	}

	return printer.Sprintf("%d km %s", int(km+0.5), model.Compass(v.Bearing))
}

func msgTime(t model.DateTime) string {
	if t.IsZero() {
		return "--:--"
	}

	tt := t.Time().Local()

	if y, m, d := time.Now().Date(); tt.Day() != d || tt.Month() != m || tt.Year() != y {
		return tt.Format("02/01 15:04")
	}

	return tt.Format("15:04")
}

// cut keeps s on one line and shortens it to n runes.
func cut(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}

	if n == 1 {
		return "…"
	}

	return string(r[:n-1]) + "…"
}
