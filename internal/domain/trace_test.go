package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrace_Key(t *testing.T) {
	tests := []struct {
		name  string
		trace Trace
		want  string
	}{
		{
			name:  "prefers trace_id",
			trace: Trace{ID: "doc-1", TraceID: "tr-1"},
			want:  "tr-1",
		},
		{
			name:  "falls back to id",
			trace: Trace{ID: "doc-1"},
			want:  "doc-1",
		},
		{
			name:  "empty when neither set",
			trace: Trace{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.trace.Key())
		})
	}
}

func TestTrace_Normalize(t *testing.T) {
	t.Run("uses input and output when present", func(t *testing.T) {
		trace := Trace{
			Input:    "question text",
			Question: "legacy question",
			Context:  "some context",
			Output:   "answer text",
			Answer:   "legacy answer",
		}

		n := trace.Normalize()
		assert.Equal(t, "question text", n.Input)
		assert.Equal(t, "some context", n.Context)
		assert.Equal(t, "answer text", n.Response)
		assert.Equal(t, "answer text", n.Output)
	})

	t.Run("falls back to question and answer", func(t *testing.T) {
		trace := Trace{
			Question: "legacy question",
			Answer:   "legacy answer",
		}

		n := trace.Normalize()
		assert.Equal(t, "legacy question", n.Input)
		assert.Equal(t, "legacy answer", n.Response)
		assert.Equal(t, "legacy answer", n.Output)
	})

	t.Run("response mirrors output", func(t *testing.T) {
		n := (&Trace{Output: "same"}).Normalize()
		assert.Equal(t, n.Output, n.Response)
	})

	t.Run("keeps a reference to the raw trace", func(t *testing.T) {
		trace := &Trace{ID: "t1"}
		n := trace.Normalize()
		assert.Same(t, trace, n.Raw)
	})
}
