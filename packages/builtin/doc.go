// Package builtin provides the functions that can be called from {{...}}
// placeholders in connect config files and CLI arguments, for example
// `Authorization: "{{basicAuth("ann", "secret")}}"`.
//
// Available functions: uuid(), now(), timestamp(), timestampMs(),
// base64(value) and basicAuth(user, password).
package builtin
