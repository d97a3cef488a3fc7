package webconf

import _ "embed"

// Default nginx templates compiled into the binary. Operators can
// substitute their own at run time; see the Assembler fields.

//go:embed templates/nginx.conf
var defaultTemplate string

//go:embed templates/nginx-top.conf
var defaultPreamble string
