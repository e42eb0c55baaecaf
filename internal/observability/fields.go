package observability

// Field is one key/value pair on a log line.
type Field struct {
	Key   string
	Value any
}

func F(k string, v any) Field { return Field{Key: k, Value: v} }

// Err renders err under the "error" key, or an empty string for nil.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Label is a metric label. Values must stay low-cardinality: ids never go here.
type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }
