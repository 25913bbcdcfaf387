// Package model defines the provider-agnostic abstraction the llm and chat
// primitives generate through.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Normalize tool/function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (model/anthropic, model/openai) implement Model here and are
// bound into the Provider Registry under a name (e.g. "anthropic") that
// workflow step config references.
package model
