package ui

import (
	"fmt"
	"strings"

	"github.com/prabalesh/crophud/internal/models"
)

// Plain renders snapshot as unstyled text, one "label: value" line per
// registered metric grouped by section.
func Plain(snapshot models.Snapshot, placeholder string) string {
	var b strings.Builder
	for _, sec := range sections {
		header := false
		for _, metric := range sec.metrics {
			if !snapshot.Registered(metric) {
				continue
			}
			if !header {
				fmt.Fprintf(&b, "%s\n", sec.title)
				header = true
			}
			fmt.Fprintf(&b, "  %-*s %s\n", labelWidth, metric.Label()+":", snapshot.Get(metric).Format(placeholder))
		}
	}
	return b.String()
}
