package probe

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/prabalesh/crophud/internal/models"
)

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)*`)

// ParseDecimal extracts the first number in text. Surrounding whitespace,
// signs, and unit suffixes such as "°C", "%" or " MiB" are ignored.
// Both "45.5" and "45,5" parse as 45.5; when a number carries both
// separators the last one is the decimal point ("1.234,5" and "1,234.5").
func ParseDecimal(text string) (float64, error) {
	match := numberPattern.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0, fmt.Errorf("%w: no number in %q", ErrNoData, text)
	}

	lastDot := strings.LastIndex(match, ".")
	lastComma := strings.LastIndex(match, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimal := "."
		grouping := ","
		if lastComma > lastDot {
			decimal, grouping = ",", "."
		}
		match = strings.ReplaceAll(match, grouping, "")
		match = strings.Replace(match, decimal, ".", 1)
	case strings.Count(match, ",") == 1:
		match = strings.Replace(match, ",", ".", 1)
	case strings.Count(match, ",") > 1:
		match = strings.ReplaceAll(match, ",", "")
	case strings.Count(match, ".") > 1:
		match = strings.ReplaceAll(match, ".", "")
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", text, err)
	}
	return value, nil
}

// ValueAfter finds the first line of output containing key and returns
// the text after that line's last colon.
func ValueAfter(output, key string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, key) {
			continue
		}
		index := strings.LastIndex(line, ":")
		if index < 0 {
			continue
		}
		value := strings.TrimSpace(line[index+1:])
		if value == "" {
			continue
		}
		return value, nil
	}
	return "", fmt.Errorf("%w: %q not found", ErrNoData, key)
}

// ReadString returns the trimmed contents of a procfs or sysfs file.
// An empty file is ErrNoData.
func ReadString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoData, path)
	}
	return text, nil
}

// ReadDecimal reads a file holding a single number.
func ReadDecimal(path string) (float64, error) {
	text, err := ReadString(path)
	if err != nil {
		return 0, err
	}
	return ParseDecimal(text)
}

// NumberFrom wraps a parsed float as a value in unit, passing errors
// through.
func NumberFrom(value float64, err error, unit models.Unit) (models.Value, error) {
	if err != nil {
		return models.Unavailable(), err
	}
	return models.Number(value, unit), nil
}
