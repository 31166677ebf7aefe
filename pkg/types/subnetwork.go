package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SubnetworkIDSize is the length of a subnetwork id in bytes.
const SubnetworkIDSize = 20

// SubnetworkID tags the class of a transaction.
type SubnetworkID [SubnetworkIDSize]byte

// SubnetworkIDNative is the all-zero id of plain value transfers.
var SubnetworkIDNative SubnetworkID

// IsNative returns true for the all-zero native subnetwork.
func (s SubnetworkID) IsNative() bool {
	return s == SubnetworkIDNative
}

// String returns the hex-encoded id.
func (s SubnetworkID) String() string {
	return hex.EncodeToString(s[:])
}

// MarshalJSON encodes the id as a hex string.
func (s SubnetworkID) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex string into a subnetwork id.
func (s *SubnetworkID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := HexToSubnetworkID(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// HexToSubnetworkID parses a 40-character hex subnetwork id.
func HexToSubnetworkID(str string) (SubnetworkID, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return SubnetworkID{}, fmt.Errorf("invalid subnetwork id hex: %w", err)
	}
	if len(b) != SubnetworkIDSize {
		return SubnetworkID{}, fmt.Errorf("subnetwork id must be %d bytes, got %d", SubnetworkIDSize, len(b))
	}
	var s SubnetworkID
	copy(s[:], b)
	return s, nil
}
