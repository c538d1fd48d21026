package object

// CommitSigningPayload is the byte sequence a commit signature covers: the
// commit serialized with its signature header blanked out. Signing and
// verification must agree on these exact bytes, so any change to the commit
// serialization format changes what existing signatures cover.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}
