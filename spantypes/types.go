package spantypes

// BinData holds a raw binary blob in a struct that is sent as JSON or BSON. The
// JSON encoder writes it as a hex string, while BSON writes it as a Binary primitive
// of subtype 0x0.
type BinData []byte
