// Package config holds the explicit configuration surface that replaces
// the source tool's module-level fallbacks and global flags.
package config

// ExtractorConfig parameterizes a single extraction/synthesis run. There
// is no file-based format; values are populated from CLI flags.
type ExtractorConfig struct {
	// MailboxOwnerName is used when a message's sender cannot be resolved
	// from its PropertyBlob and the record is known to be self-sent.
	MailboxOwnerName string

	// MailboxOwnerDomain is handed to the extractor unchanged as the
	// mailbox email (erc.Options.MailboxEmail): the sender address of a
	// record with neither sender name nor email, and a calendar item's
	// organizer email. It is not appended to bare local-parts.
	MailboxOwnerDomain string

	// AllowLZXPRESSFallback is carried in the configuration only; the
	// LZXPRESS decoder does not read it and always applies its full
	// rule set.
	AllowLZXPRESSFallback bool

	// DebugDump is carried in the configuration only; no code writes
	// raw record bytes to it.
	DebugDump string

	// ResumeStatePath is carried in the configuration only; the CLI's
	// --resume flags are read directly and do not consult it.
	ResumeStatePath string
}

// DefaultConfig returns the zero-value configuration with the fallback
// decoder enabled, matching the source tool's default behavior.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		AllowLZXPRESSFallback: true,
	}
}
