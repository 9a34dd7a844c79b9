package schema

import (
	"errors"
	"testing"
)

func sampleSchema() Schema {
	return Schema{
		"cmd": {Type: TypeString, Required: true},
		"a":   {Type: TypeString, Default: "abc"},
		"b":   {Type: TypeNumber, Default: 123},
		"d":   {Type: TypeBoolean, Default: false},
		"c": {
			Type: TypeObject,
			Properties: Schema{
				"c1": {Type: TypeString},
			},
		},
	}
}

func TestValidate_DefaultsMerged(t *testing.T) {
	got, err := Validate(sampleSchema(), map[string]any{"cmd": "uname -a"})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if got["cmd"] != "uname -a" {
		t.Errorf("cmd = %v, want uname -a", got["cmd"])
	}
	if got["a"] != "abc" {
		t.Errorf("default for a = %v, want abc", got["a"])
	}
	if got["b"] != 123 {
		t.Errorf("default for b = %v, want 123", got["b"])
	}
	if got["d"] != false {
		t.Errorf("default for d = %v, want false", got["d"])
	}
	if _, present := got["c"]; present {
		t.Error("optional parameter without default should stay absent")
	}
}

func TestValidate_InputNotModified(t *testing.T) {
	params := map[string]any{"cmd": "ls -l"}
	if _, err := Validate(sampleSchema(), params); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(params) != 1 {
		t.Errorf("input map was modified: %v", params)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		params     map[string]any
		wantKey    string
		wantReason Reason
	}{
		{
			name:       "missing required",
			params:     map[string]any{},
			wantKey:    "cmd",
			wantReason: MissingRequired,
		},
		{
			name:       "unexpected property",
			params:     map[string]any{"cmd": "uname -a", "foo": "bar"},
			wantKey:    "foo",
			wantReason: UnexpectedProperty,
		},
		{
			name:       "wrong primitive type",
			params:     map[string]any{"cmd": 1000},
			wantKey:    "cmd",
			wantReason: TypeMismatch,
		},
		{
			name:       "boolean type mismatch",
			params:     map[string]any{"cmd": "x", "d": "yes"},
			wantKey:    "d",
			wantReason: TypeMismatch,
		},
		{
			name:       "object expected",
			params:     map[string]any{"cmd": "x", "c": "not an object"},
			wantKey:    "c",
			wantReason: TypeMismatch,
		},
		{
			name:       "nested unexpected property",
			params:     map[string]any{"cmd": "x", "c": map[string]any{"c2": "v"}},
			wantKey:    "c.c2",
			wantReason: UnexpectedProperty,
		},
		{
			name:       "nested type mismatch",
			params:     map[string]any{"cmd": "x", "c": map[string]any{"c1": 5}},
			wantKey:    "c.c1",
			wantReason: TypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(sampleSchema(), tt.params)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %T", err)
			}
			if fe.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", fe.Key, tt.wantKey)
			}
			if fe.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", fe.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidate_NumberAcceptsJSONAndNativeValues(t *testing.T) {
	s := Schema{"n": {Type: TypeNumber, Required: true}}

	for _, v := range []any{float64(1.5), int(7), int64(9)} {
		if _, err := Validate(s, map[string]any{"n": v}); err != nil {
			t.Errorf("number %T rejected: %v", v, err)
		}
	}
	if _, err := Validate(s, map[string]any{"n": "10"}); err == nil {
		t.Error("string accepted as number")
	}
}

func TestValidate_AdditionalPropertiesAllowed(t *testing.T) {
	s := Schema{
		"env": {
			Type:                 TypeObject,
			AdditionalProperties: true,
			Properties:           Schema{"PATH": {Type: TypeString}},
		},
	}

	got, err := Validate(s, map[string]any{
		"env": map[string]any{"PATH": "/bin", "HOME": "/root"},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	env := got["env"].(map[string]any)
	if env["HOME"] != "/root" {
		t.Errorf("extra key dropped: %v", env)
	}
}

func TestValidate_NestedDefaults(t *testing.T) {
	s := Schema{
		"opts": {
			Type: TypeObject,
			Properties: Schema{
				"retries": {Type: TypeNumber, Default: 3},
				"verbose": {Type: TypeBoolean, Required: true},
			},
		},
	}

	got, err := Validate(s, map[string]any{
		"opts": map[string]any{"verbose": true},
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	opts := got["opts"].(map[string]any)
	if opts["retries"] != 3 {
		t.Errorf("nested default not merged: %v", opts)
	}
}

func TestSchema_Validate(t *testing.T) {
	bad := Schema{"x": {Type: "integer"}}
	if err := bad.Validate(); err == nil {
		t.Error("invalid type accepted")
	}

	misplaced := Schema{"x": {Type: TypeString, Properties: Schema{"y": {Type: TypeString}}}}
	if err := misplaced.Validate(); err == nil {
		t.Error("properties on non-object accepted")
	}

	if err := sampleSchema().Validate(); err != nil {
		t.Errorf("valid schema rejected: %v", err)
	}
}

func TestSchema_Clone(t *testing.T) {
	original := sampleSchema()
	clone := original.Clone()

	clone["cmd"] = Field{Type: TypeNumber}
	nested := clone["c"]
	nested.Properties["c1"] = Field{Type: TypeBoolean}

	if original["cmd"].Type != TypeString {
		t.Error("clone shares top-level fields with the original")
	}
	if original["c"].Properties["c1"].Type != TypeString {
		t.Error("clone shares nested properties with the original")
	}

	var empty Schema
	if empty.Clone() != nil {
		t.Error("nil schema should clone to nil")
	}
}

func TestSchema_Merge(t *testing.T) {
	base := Schema{
		"cmd":     {Type: TypeString, Required: true},
		"timeout": {Type: TypeNumber, Default: 60},
	}
	override := Schema{
		"timeout": {Type: TypeNumber, Default: 10},
		"cwd":     {Type: TypeString},
	}

	merged := base.Merge(override)
	if merged["timeout"].Default != 10 {
		t.Errorf("override did not win: %v", merged["timeout"])
	}
	if _, ok := merged["cmd"]; !ok {
		t.Error("base key lost in merge")
	}
	if _, ok := merged["cwd"]; !ok {
		t.Error("override-only key lost in merge")
	}
	if base["timeout"].Default != 60 {
		t.Error("merge modified its receiver")
	}
}
