// Package agent contains the core orchestrator responsible for translating
// natural-language prompts into executable on-chain workflows. It drives the
// model's tool-calling loop, records conversation history, and mirrors every
// executed action into the audit trail and the event pipeline.
package agent
