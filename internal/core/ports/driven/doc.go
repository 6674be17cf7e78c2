// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VulnerabilityRegistry: Fetches raw CVE records (NVD API)
//   - SessionRepository: Conversation history persistence
//   - ReportRepository: Analysis report persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Text generation. Without it, reports carry a fallback analysis.
//   - PromptStore: User-editable prompt templates. Without it, built-in prompts are used.
//   - MetricsRecorder: Operational counters. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
