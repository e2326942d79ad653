package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Base styles
	BaseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	// Header styles
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Underline(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	// Data styles
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	UnavailableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	// Chart styles
	SparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("36"))

	// Help styles
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	HintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// RenderSparkline draws one block per sample. Samples are scaled against
// ceiling, or against the largest sample when ceiling is not positive.
func RenderSparkline(samples []float64, ceiling float64) string {
	if ceiling <= 0 {
		for _, sample := range samples {
			ceiling = max(ceiling, sample)
		}
	}

	var line strings.Builder
	for _, sample := range samples {
		level := 0
		if ceiling > 0 {
			level = int(sample / ceiling * float64(len(sparkLevels)-1))
		}
		level = max(0, min(len(sparkLevels)-1, level))
		line.WriteRune(sparkLevels[level])
	}
	return SparklineStyle.Render(line.String())
}
