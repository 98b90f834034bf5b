package output

import "testing"

func TestNewRunReportWriter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
	}{
		{name: "Console", format: FormatConsole},
		{name: "JSON", format: FormatJSON},
		{name: "CSV", format: FormatCSV},
		{name: "Markdown", format: FormatMarkdown},
		{name: "CI", format: FormatCI},
		{name: "Unknown defaults to Console", format: "unknown"},
		{name: "Empty defaults to Console", format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := NewRunReportWriter(tt.format)
			if writer == nil {
				t.Fatal("NewRunReportWriter returned nil")
			}

			switch tt.format {
			case FormatJSON:
				if _, ok := writer.(*JSONRunWriter); !ok {
					t.Errorf("Expected *JSONRunWriter for format %q", tt.format)
				}
			case FormatCSV:
				if _, ok := writer.(*CSVRunWriter); !ok {
					t.Errorf("Expected *CSVRunWriter for format %q", tt.format)
				}
			case FormatMarkdown:
				if _, ok := writer.(*MarkdownRunWriter); !ok {
					t.Errorf("Expected *MarkdownRunWriter for format %q", tt.format)
				}
			case FormatCI:
				if _, ok := writer.(*CIRunWriter); !ok {
					t.Errorf("Expected *CIRunWriter for format %q", tt.format)
				}
			default:
				if _, ok := writer.(*ConsoleRunWriter); !ok {
					t.Errorf("Expected *ConsoleRunWriter for format %q", tt.format)
				}
			}
		})
	}
}

func TestNewCommitReportWriter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
	}{
		{name: "Console", format: FormatConsole},
		{name: "JSON", format: FormatJSON},
		{name: "CSV", format: FormatCSV},
		{name: "Markdown", format: FormatMarkdown},
		{name: "CI falls back to Console", format: FormatCI},
		{name: "Unknown defaults to Console", format: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := NewCommitReportWriter(tt.format)
			switch tt.format {
			case FormatJSON:
				if _, ok := writer.(*JSONCommitWriter); !ok {
					t.Errorf("Expected *JSONCommitWriter for format %q", tt.format)
				}
			case FormatCSV:
				if _, ok := writer.(*CSVCommitWriter); !ok {
					t.Errorf("Expected *CSVCommitWriter for format %q", tt.format)
				}
			case FormatMarkdown:
				if _, ok := writer.(*MarkdownCommitWriter); !ok {
					t.Errorf("Expected *MarkdownCommitWriter for format %q", tt.format)
				}
			default:
				if _, ok := writer.(*ConsoleCommitWriter); !ok {
					t.Errorf("Expected *ConsoleCommitWriter for format %q", tt.format)
				}
			}
		})
	}
}
