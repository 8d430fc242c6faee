package api

import _ "embed"

// OpenAPI is the API description served under /docs.
//
//go:embed openapi.json
var OpenAPI []byte
