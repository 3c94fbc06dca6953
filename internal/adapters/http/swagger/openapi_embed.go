package swagger

import _ "embed"

// OpenAPI is the sports intelligence API document served at SpecPath. It
// covers the /intelligence routes, health, stats and metrics.
//
//go:embed openapi.yaml
var OpenAPI []byte
