package transport

import "fmt"

// Wire format of one command packet: a fixed 30-byte payload padded with 'F',
// framed between 0xA6 sync bytes with a constant 0x00 and a 1-wire CRC-8 of
// the payload.
const (
	PacketPayloadSize = 30
	packetSync        = 0xA6
	padByte           = 'F'
)

// Device status codes carried in byte 1 of a status report.
const (
	StatusBadState = 204
	StatusOK       = 206
	StatusError    = 207
	StatusFinish   = 236
	StatusBusy     = 238
	StatusPower    = 239
)

// StatusDesc returns a human-readable name for a status code.
func StatusDesc(code int) string {
	switch code {
	case StatusBadState:
		return "bad state"
	case StatusOK:
		return "ok"
	case StatusError:
		return "packet rejected"
	case StatusFinish:
		return "finished"
	case StatusBusy:
		return "busy"
	case StatusPower:
		return "low power"
	default:
		return fmt.Sprintf("unknown (%d)", code)
	}
}

func encodePacket(payload []byte) ([]byte, error) {
	if len(payload) > PacketPayloadSize {
		return nil, fmt.Errorf("payload too large: %d > %d", len(payload), PacketPayloadSize)
	}

	body := make([]byte, PacketPayloadSize)
	copy(body, payload)
	for i := len(payload); i < PacketPayloadSize; i++ {
		body[i] = padByte
	}

	packet := make([]byte, 0, PacketPayloadSize+4)
	packet = append(packet, packetSync, 0x00)
	packet = append(packet, body...)
	packet = append(packet, onewireCRC(body), packetSync)
	return packet, nil
}

// onewireCRC computes the Dallas/Maxim 1-wire CRC-8 over data.
func onewireCRC(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x01 != 0 {
				crc = (crc >> 1) ^ 0x8C
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
