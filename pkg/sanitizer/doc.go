// Package sanitizer provides input normalization for fleet and
// reservation data.
//
// All normalization functions are idempotent - applying them multiple
// times produces the same result. Functions handle invalid input
// gracefully, typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Plates: Uppercase, strip everything but letters, digits and dashes
//   - Model labels: Collapse whitespace, preserve case
package sanitizer
