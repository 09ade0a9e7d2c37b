// Package swagger holds the OpenAPI document of the REST API.
package swagger

import _ "embed"

// UserJSON is user.swagger.json, compiled into the binary so the docs do not
// depend on the working directory.
//
//go:embed user.swagger.json
var UserJSON []byte
