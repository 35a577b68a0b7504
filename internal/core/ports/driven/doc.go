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
//   - PageExtractor: Decodes PDF bytes into per-page text
//   - ExtractorFactory: Selects a PageExtractor by backend name
//   - Detector: Scans page text and emits issues
//   - DetectorPipeline: Runs detectors and merges their output
//   - ConfigStore: Application configuration
//   - PromptStore: Model prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model operations. Without it, model-based
//     detection and email drafting are disabled.
//   - AnalysisStore: Persistence. Without it, results are never saved.
//   - ScreenshotService: Page images for issues. Without it, issues carry
//     no screenshot reference.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or detector package
package driven
