package txn

// Dialect holds the opcodes of one device family. The values are
// family-specific and must match the device firmware bit for bit.
type Dialect struct {
	ReadBlock    byte `yaml:"read_block"`
	WriteBlock   byte `yaml:"write_block"`
	Extended     byte `yaml:"extended"`
	EraseAddress byte `yaml:"erase_address"`
	QueryVersion byte `yaml:"query_version"`
	QueryType    byte `yaml:"query_type"`
	// Confirm is the byte written after a write-type frame; the device echoes
	// it to acknowledge the command.
	Confirm byte `yaml:"confirm"`
}
