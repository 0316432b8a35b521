// Package auth stores bearer tokens for the HTTP listing source.
//
// Tokens live in the system keyring when one is usable, otherwise in an
// AES-GCM encrypted file under the user config directory. The
// EMOJIHARVEST_API_TOKEN environment variable is always consulted and
// wins over stored tokens.
package auth
