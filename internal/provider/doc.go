// Package provider holds the HTTP plumbing shared by all generation adapters.
//
// Every adapter performs exactly one outbound call per invocation through a
// Client. The Client applies authentication, bounds the call with a timeout
// derived from the caller's context, checks the response status, and reports
// failures using a small error taxonomy:
//
//   - TransportError: the provider could not be reached (network, timeout, cancellation)
//   - RejectionError: the provider answered with a non-2xx status
//   - ReportedError: the provider answered 2xx but reported an error in the body
//   - ShapeError: the provider answered 2xx but the expected result is missing
//   - LocalIOError: a local side effect (writing a generated file) failed
//
// ErrNotImplemented marks features a provider does not support; the request
// layer maps it to HTTP 501.
//
// # Adapters
//
//   - gemini: text and code generation (Google Gemini generateContent)
//   - stability: image generation (Stability AI text-to-image)
//   - elevenlabs: speech synthesis (ElevenLabs text-to-speech)
//   - texttovideo: video generation (RapidAPI text-to-video)
package provider
