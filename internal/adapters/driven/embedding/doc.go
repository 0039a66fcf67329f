// Package embedding holds helpers shared by the embedding service adapters
// in its subpackages (openai, ollama, gemini).
package embedding
