// Package secure provides memory-safe storage for sensitive data.
//
// Secret bytes (API keys, bearer tokens, fetched secret values, RSA key
// material) must never outlive their use in plain form. Buffer keeps them
// encrypted at rest via memguard enclaves; Wipe zeroes transient plaintext
// slices on every exit path. Garbage collection is never relied on for
// secret hygiene.
package secure
