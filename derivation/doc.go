// Package derivation implements deterministic slot addressing.
//
// An address is derived from an ordered seed tuple and the owning program's
// address:
//
//	sha256(seed_0 || ... || seed_n || bump || program || "ProgramDerivedAddress")
//
// The bump is searched from 255 down, and the first value whose hash is NOT a
// valid ed25519 point is used. No private key can exist for a derived
// address, so only the owning program can authorize writes to it, by
// presenting the seeds and the bump.
//
// The verifier re-derives the address from the claimed seeds and compares.
// Any address supplied from outside must be checked this way before the
// content of its slot is trusted.
package derivation
