package deadletter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validBuilder() *Builder {
	return NewBuilder().
		WithPluginID("plugin-1").
		WithPluginName("field mapper").
		WithPipelineName("telemetry-main").
		WithFailedData(map[string]any{"latency": "abc"})
}

func TestBuild(t *testing.T) {
	record, err := validBuilder().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if record.PluginID() != "plugin-1" {
		t.Fatalf("plugin id: got %q", record.PluginID())
	}
	if record.PluginName() != "field mapper" {
		t.Fatalf("plugin name: got %q", record.PluginName())
	}
	if record.PipelineName() != "telemetry-main" {
		t.Fatalf("pipeline name: got %q", record.PipelineName())
	}
	if record.FailedData() == nil {
		t.Fatal("failed data missing")
	}
	if record.Schema() != "1" {
		t.Fatalf("schema version: got %q want %q", record.Schema(), "1")
	}
}

func TestBuildMissingVersusEmpty(t *testing.T) {
	cases := []struct {
		name    string
		builder *Builder
		want    error
		field   string
	}{
		{
			name: "plugin id missing",
			builder: NewBuilder().
				WithPluginName("n").WithPipelineName("p").WithFailedData("d"),
			want:  ErrMissingField,
			field: "pluginId",
		},
		{
			name:    "plugin id empty",
			builder: validBuilder().WithPluginID(""),
			want:    ErrInvalidField,
			field:   "pluginId",
		},
		{
			name:    "plugin id blank after trim",
			builder: validBuilder().WithPluginID("   "),
			want:    ErrInvalidField,
			field:   "pluginId",
		},
		{
			name: "plugin name missing",
			builder: NewBuilder().
				WithPluginID("i").WithPipelineName("p").WithFailedData("d"),
			want:  ErrMissingField,
			field: "pluginName",
		},
		{
			name:    "plugin name empty",
			builder: validBuilder().WithPluginName(""),
			want:    ErrInvalidField,
			field:   "pluginName",
		},
		{
			name: "pipeline name missing",
			builder: NewBuilder().
				WithPluginID("i").WithPluginName("n").WithFailedData("d"),
			want:  ErrMissingField,
			field: "pipelineName",
		},
		{
			name:    "pipeline name empty",
			builder: validBuilder().WithPipelineName(""),
			want:    ErrInvalidField,
			field:   "pipelineName",
		},
		{
			name: "failed data missing",
			builder: NewBuilder().
				WithPluginID("i").WithPluginName("n").WithPipelineName("p"),
			want:  ErrMissingField,
			field: "failedData",
		},
		{
			name:    "failed data nil",
			builder: validBuilder().WithFailedData(nil),
			want:    ErrMissingField,
			field:   "failedData",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got %T", err)
			}
			if fieldErr.Field != tc.field {
				t.Fatalf("field: got %q want %q", fieldErr.Field, tc.field)
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	at := time.Date(2026, 8, 26, 10, 30, 15, 250_000_000, time.Local)
	record, err := validBuilder().WithClock(func() time.Time { return at }).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "2026-08-26T10:30:15.250Z"
	if record.Timestamp() != want {
		t.Fatalf("timestamp: got %q want %q", record.Timestamp(), want)
	}
}

func TestEquality(t *testing.T) {
	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)
	first, err := validBuilder().WithClock(func() time.Time { return base }).Build()
	if err != nil {
		t.Fatalf("build first: %v", err)
	}
	if !first.Equal(first) {
		t.Fatal("record not equal to itself")
	}

	same, err := validBuilder().WithClock(func() time.Time { return base }).Build()
	if err != nil {
		t.Fatalf("build same: %v", err)
	}
	if !first.Equal(same) {
		t.Fatal("identical inputs at the same instant should be equal")
	}

	// One second later, identical inputs must produce a distinct record.
	later, err := validBuilder().WithClock(func() time.Time { return base.Add(time.Second) }).Build()
	if err != nil {
		t.Fatalf("build later: %v", err)
	}
	if first.Equal(later) {
		t.Fatal("records built at different instants should not be equal")
	}
}

func TestStringContainsAllFields(t *testing.T) {
	pluginID := uuid.NewString()
	pluginName := uuid.NewString()
	pipelineName := uuid.NewString()
	payload := uuid.NewString()

	record, err := NewBuilder().
		WithPluginID(pluginID).
		WithPluginName(pluginName).
		WithPipelineName(pipelineName).
		WithFailedData(payload).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	rendered := record.String()
	for _, part := range []string{"deadletter.Record", pluginID, pluginName, pipelineName, payload, record.Timestamp(), "1"} {
		if !strings.Contains(rendered, part) {
			t.Fatalf("rendered record missing %q: %s", part, rendered)
		}
	}
}
