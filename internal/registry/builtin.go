package registry

import "github.com/actiond/actiond/internal/schema"

// schemaShell is the parameter fragment every shell-bound action
// inherits. Actions override per key (a dummy action may redeclare cmd
// with its own default, for instance).
func schemaShell() schema.Schema {
	return schema.Schema{
		"cmd": {
			Type:        schema.TypeString,
			Required:    true,
			Description: "Command line to execute.",
		},
		"cwd": {
			Type:        schema.TypeString,
			Description: "Working directory for the command.",
		},
		"timeout": {
			Type:        schema.TypeNumber,
			Default:     60,
			Description: "Wall-clock limit in seconds.",
		},
		"env": {
			Type:                 schema.TypeObject,
			AdditionalProperties: true,
			Description:          "Extra environment variables.",
		},
	}
}

func schemaHTTP() schema.Schema {
	return schema.Schema{
		"url": {
			Type:        schema.TypeString,
			Required:    true,
			Description: "Target URL.",
		},
		"method": {
			Type:        schema.TypeString,
			Default:     "GET",
			Description: "HTTP method.",
		},
		"headers": {
			Type:                 schema.TypeObject,
			AdditionalProperties: true,
			Description:          "Request headers.",
		},
		"body": {
			Type:        schema.TypeString,
			Description: "Request body.",
		},
	}
}
