package entities

// MappingColumns are the nine leading columns of a mapping extract, positionally
var MappingColumns = []string{
	"旧规格", "旧品名", "旧晶圆品名",
	"新规格", "新品名", "新晶圆品名",
	"封装厂", "PC", "半成品",
}

// MappingRule rewrites a stale product identity to its current one
type MappingRule struct {
	Old          CompositeKey `json:"old"`
	New          CompositeKey `json:"new"`
	Vendor       string       `json:"vendor,omitempty"`        // packaging vendor
	ProcessCode  string       `json:"process_code,omitempty"`  // PC
	SemiFinished string       `json:"semi_finished,omitempty"` // semi-finished product name
}

// Inert reports whether the rule leaves keys unchanged
func (r MappingRule) Inert() bool {
	return !r.New.Complete()
}
