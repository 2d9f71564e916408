// Package secret resolves provider credentials in configuration values.
//
// Two mechanisms are supported:
//   - Strict environment expansion (see ExpandEnvStrict): ${VAR} and
//     ${VAR:-default}, failing on unset variables without a default.
//   - Secret references (see Resolver): a value, or a token inside a
//     value, of the form "secretref:<source>:<ref>" is replaced by what the
//     named Source returns for ref.
//
// Built-in sources:
//   - env:  secretref:env:OPENAI_API_KEY
//   - file: Bearer secretref:file:/run/secrets/openai
//
// Resolved values are never logged by this package.
package secret
