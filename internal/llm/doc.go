// Package llm contains adapters for invoking large language models. It
// abstracts away provider-specific APIs and normalizes the request/response
// lifecycle, including tool (function) calling, for use within the agent
// runtime.
package llm
