package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/contract-analytics/pkg/datetime"
)

// Accepted spellings for each field, in lookup order.
var (
	idKeys           = []string{"id", "ID", "uuid"}
	titleKeys        = []string{"title", "name"}
	statusKeys       = []string{"status", "state"}
	valueKeys        = []string{"value", "amount", "contract_value", "contractValue", "total_value", "totalValue"}
	startKeys        = []string{"start_date", "startDate", "start"}
	endKeys          = []string{"end_date", "endDate", "end"}
	vendorRefKeys    = []string{"vendor_id", "vendorId", "vendor"}
	contractTypeKeys = []string{"contract_type", "contractType", "type"}
	createdKeys      = []string{"created_at", "createdAt", "created"}

	vendorNameKeys  = []string{"name", "vendor_name", "vendorName"}
	categoryKeys    = []string{"category", "vendor_category", "vendorCategory"}
	performanceKeys = []string{"performance_score", "performanceScore", "performance"}
	complianceKeys  = []string{"compliance_score", "complianceScore", "compliance"}
	riskKeys        = []string{"risk_score", "riskScore", "risk_level", "riskLevel", "risk"}
	spendKeys       = []string{"total_spend", "totalSpend", "spend"}
)

// lookup returns the first non-nil value stored under any of keys.
func lookup(r Raw, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(r Raw, keys []string) string {
	v, ok := lookup(r, keys)
	if !ok {
		return ""
	}
	return toString(v)
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return strings.TrimSpace(string(val))
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	}
	return ""
}

// numberField parses the field as a number. The second return value is false
// when the field is absent or unparsable.
func numberField(r Raw, keys []string) (float64, bool) {
	v, ok := lookup(r, keys)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case []byte:
		return parseNumber(string(val))
	case string:
		return parseNumber(val)
	}
	return 0, false
}

var numberCleaner = strings.NewReplacer("$", "", ",", "", " ", "", "_", "")

func parseNumber(s string) (float64, bool) {
	cleaned := numberCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// timeField parses the field as a timestamp, returning nil when absent or
// unparsable.
func timeField(r Raw, keys []string) *time.Time {
	v, ok := lookup(r, keys)
	if !ok {
		return nil
	}
	t, ok := datetime.ParseTimestamp(v)
	if !ok {
		return nil
	}
	return &t
}

// referenceField resolves a foreign key that may arrive either as a scalar
// or as an embedded object carrying an id.
func referenceField(r Raw, keys []string) string {
	v, ok := lookup(r, keys)
	if !ok {
		return ""
	}
	switch nested := v.(type) {
	case map[string]any:
		return stringField(Raw(nested), idKeys)
	case Raw:
		return stringField(nested, idKeys)
	}
	return toString(v)
}
