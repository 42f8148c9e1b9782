package validation

import (
	"strings"
	"testing"

	"github.com/iwvelando/contract-analytics/pkg/constants"
)

func TestValidateOutputFormat(t *testing.T) {
	for _, format := range []string{constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON} {
		if err := ValidateOutputFormat(format); err != nil {
			t.Errorf("ValidateOutputFormat(%q) unexpected error = %v", format, err)
		}
	}

	// Formats are matched exactly, so flags and config values must be lower case
	for _, format := range []string{"", "JSON", " csv", "xml", "yaml"} {
		err := ValidateOutputFormat(format)
		if err == nil {
			t.Errorf("ValidateOutputFormat(%q) expected error but got none", format)
			continue
		}
		if !strings.HasSuffix(err.Error(), "got "+format) {
			t.Errorf("ValidateOutputFormat(%q) error should name the rejected format, got %q", format, err)
		}
	}
}
