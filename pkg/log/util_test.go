package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		input []any
		keys  []string
		types []zapcore.FieldType
	}{
		{"empty", nil, nil, nil},
		{
			"pairs",
			[]any{"command", "Cancel (requires [arm])", "cycles", 3, "interruptible", true},
			[]string{"command", "cycles", "interruptible"},
			[]zapcore.FieldType{zapcore.StringType, zapcore.Int64Type, zapcore.BoolType},
		},
		{
			"durations and requirements",
			[]any{"elapsed", 500 * time.Millisecond, "requires", []string{"arm", "gripper"}},
			[]string{"elapsed", "requires"},
			[]zapcore.FieldType{zapcore.DurationType, zapcore.ArrayMarshalerType},
		},
		{
			"bare error",
			[]any{boom},
			[]string{"error"},
			[]zapcore.FieldType{zapcore.ErrorType},
		},
		{
			"zap field passthrough",
			[]any{zap.String("x", "y"), "n", 1.5},
			[]string{"x", "n"},
			[]zapcore.FieldType{zapcore.StringType, zapcore.Float64Type},
		},
		{
			"dangling key",
			[]any{"a", "b", "c"},
			[]string{"a", "arg#2"},
			[]zapcore.FieldType{zapcore.StringType, zapcore.StringType},
		},
		{
			"non-string key",
			[]any{42, "v"},
			[]string{"invalid_key_1"},
			[]zapcore.FieldType{zapcore.ReflectType},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			var keys []string
			var types []zapcore.FieldType
			for _, f := range fields {
				keys = append(keys, f.Key)
				types = append(types, f.Type)
			}
			assert.Equal(t, tt.keys, keys)
			assert.Equal(t, tt.types, types)
		})
	}
}
