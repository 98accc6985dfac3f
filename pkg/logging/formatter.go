package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// leadingFields are printed first, in this order, and highlighted. Other
// fields follow alphabetically.
var leadingFields = []string{"run_id", "operation", "usr", "tid", "term", "error"}

var levelColors = map[logrus.Level][]color.Attribute{
	logrus.TraceLevel: {color.FgBlue},
	logrus.DebugLevel: {color.FgBlue},
	logrus.InfoLevel:  {color.FgGreen},
	logrus.WarnLevel:  {color.FgYellow},
	logrus.ErrorLevel: {color.FgRed},
	logrus.FatalLevel: {color.FgRed, color.Bold},
	logrus.PanicLevel: {color.FgRed, color.Bold},
}

// ColoredJSONFormatter renders one colored line per entry: time, level,
// message, then key=value fields with JSON-encoded values.
type ColoredJSONFormatter struct {
	TimestampFormat string
	// DisableColors is set when output is not a terminal.
	DisableColors bool
}

func NewColoredJSONFormatter() *ColoredJSONFormatter {
	return &ColoredJSONFormatter{TimestampFormat: time.RFC3339}
}

func (f *ColoredJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	level := f.color(levelAttributes(entry.Level)...)
	fmt.Fprintf(b, "%s %s %s",
		f.color(color.FgYellow).Sprint(entry.Time.Format(f.TimestampFormat)),
		level.Sprintf("%-7s", strings.ToUpper(entry.Level.String())),
		level.Sprint(entry.Message))

	value := f.color(color.FgWhite)
	for _, k := range orderedKeys(entry.Data) {
		key := f.color(color.FgCyan)
		if fieldRank(k) >= 0 {
			key = f.color(color.FgGreen)
		}
		fmt.Fprintf(b, " %s%s", key.Sprintf("%s=", k), value.Sprint(encodeValue(entry.Data[k])))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *ColoredJSONFormatter) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if f.DisableColors {
		c.DisableColor()
	}
	return c
}

func levelAttributes(level logrus.Level) []color.Attribute {
	if attrs, ok := levelColors[level]; ok {
		return attrs
	}
	return []color.Attribute{color.FgWhite}
}

func fieldRank(key string) int {
	for i, name := range leadingFields {
		if name == key {
			return i
		}
	}
	return -1
}

func orderedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := fieldRank(keys[i]), fieldRank(keys[j])
		switch {
		case ri >= 0 && rj >= 0:
			return ri < rj
		case ri >= 0 || rj >= 0:
			return ri >= 0
		}
		return keys[i] < keys[j]
	})
	return keys
}

func encodeValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case error:
		return fmt.Sprintf("%q", v.Error())
	case time.Time:
		return v.Format(time.RFC3339)
	}
	if encoded, err := json.Marshal(v); err == nil {
		return string(encoded)
	}
	return fmt.Sprintf("%v", v)
}
