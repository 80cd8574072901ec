package node

import (
	"github.com/lora-edge/node-stack/lorawan/band"
)

// Config collects the compile-time-selectable surface spec.md §6 names.
// It is a plain struct, not parsed from flags or environment — this
// module is a library, the same shape band.GetConfig(name, ...) takes in
// the teacher.
type Config struct {
	Region band.Name

	PublicNetwork    bool
	ADREnabled       bool
	DutyCycleOn      bool
	ApplicationPort  uint8
	MaxTXPayload     int // 0 = no cap beyond the region's own DR ceiling
	SubBand          int // US915Hybrid/AU915 sub-band selector
	DwellTimeLimited bool
	JoinTrials       int

	// BatteryLevelFunc supplies the battery level for DevStatusAns; nil
	// reports "unknown" (255) per the LoRaWAN encoding.
	BatteryLevelFunc func() (battery uint8, marginDB int8)

	// ConfirmedRetries bounds confirmed-uplink retransmissions (< 255).
	ConfirmedRetries uint8
}

// applicationPortMin/Max bound the application port range; 0 is MAC-
// reserved, 224 is compliance-test-reserved, 225-255 are reserved.
const (
	applicationPortMin = 1
	applicationPortMax = 223
	compliancePort     = 224
)

// ValidatePort rejects every port outside 1-223, unless complianceMode is
// set, in which case 224 is also accepted (node/compliance is the only
// caller that ever sets complianceMode).
func ValidatePort(port uint8, complianceMode bool) error {
	if complianceMode && port == compliancePort {
		return nil
	}
	if port < applicationPortMin || port > applicationPortMax {
		return newError(InvalidArgument, "node: port out of range")
	}
	return nil
}
