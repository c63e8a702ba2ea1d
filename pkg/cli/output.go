package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

type OutputOptions struct {
	Format OutputFormat
	Quiet  bool
	Writer io.Writer
}

func NewOutputOptions() *OutputOptions {
	return &OutputOptions{
		Format: OutputTable,
		Writer: os.Stdout,
	}
}

func (o *OutputOptions) Structured() bool {
	return o.Format == OutputJSON || o.Format == OutputYAML
}

func FormatOutput(data any, format OutputFormat) (string, error) {
	switch format {
	case OutputJSON:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal JSON: %w", err)
		}
		return string(b) + "\n", nil
	case OutputYAML:
		b, err := yaml.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("marshal YAML: %w", err)
		}
		return string(b), nil
	default:
		return formatTable(data), nil
	}
}

// formatTable renders a slice of structs as columns headed by their json
// names, and anything else with %v.
func formatTable(data any) string {
	if data == nil {
		return ""
	}
	if s, ok := data.(string); ok {
		return s
	}

	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice || v.Type().Elem().Kind() != reflect.Struct {
		return fmt.Sprintf("%v\n", data)
	}
	if v.Len() == 0 {
		return "No items\n"
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	t := v.Type().Elem()
	headers := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		headers = append(headers, strings.ToUpper(fieldName(t.Field(i))))
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for i := 0; i < v.Len(); i++ {
		row := v.Index(i)
		values := make([]string, 0, row.NumField())
		for j := 0; j < row.NumField(); j++ {
			values = append(values, fmt.Sprintf("%v", row.Field(j).Interface()))
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}

	w.Flush()
	return sb.String()
}

func fieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func PrintOutput(data any, opts *OutputOptions) error {
	if opts.Quiet {
		return nil
	}

	output, err := FormatOutput(data, opts.Format)
	if err != nil {
		return err
	}

	fmt.Fprint(opts.Writer, output)
	return nil
}

// PrintText writes a chat reply. Structured formats wrap it as {"text": ...};
// the table format prints it without the chat markup.
func PrintText(text string, opts *OutputOptions) error {
	if opts.Structured() {
		return PrintOutput(map[string]string{"text": text}, opts)
	}
	return PrintOutput(plain(text)+"\n", opts)
}

// plain strips the bold markers used by chat clients.
func plain(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
