// internal/poller/modbus/ascii.go
package modbus

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goburrow/modbus"

	"github.com/roastcraft/roastcraft-daq/internal/device"
)

const (
	asciiStart = ':'
	asciiEnd   = "\r\n"

	// ':' + id + fc + lrc + CRLF
	asciiMinSize = 9
	asciiMaxSize = 513

	// asciiHeaderLen covers ':' + id(2) + fc(2) + byte count or exception code(2).
	asciiHeaderLen = 7
)

// asciiPackager frames PDUs for Modbus ASCII.
//
// ADU:
//
//	':' HEX(ID FC DATA LRC) CR LF
type asciiPackager struct {
	SlaveID byte
}

func (p *asciiPackager) Encode(pdu *modbus.ProtocolDataUnit) ([]byte, error) {
	raw := make([]byte, 0, len(pdu.Data)+3)
	raw = append(raw, p.SlaveID, pdu.FunctionCode)
	raw = append(raw, pdu.Data...)
	raw = append(raw, lrc(raw))

	var buf bytes.Buffer
	buf.WriteByte(asciiStart)
	buf.WriteString(strings.ToUpper(hex.EncodeToString(raw)))
	buf.WriteString(asciiEnd)

	if buf.Len() > asciiMaxSize {
		return nil, fmt.Errorf("modbus ascii: length of data '%d' must not be bigger than '%d'", buf.Len(), asciiMaxSize)
	}
	return buf.Bytes(), nil
}

func (p *asciiPackager) Verify(aduRequest, aduResponse []byte) error {
	n := len(aduResponse)
	if n < asciiMinSize {
		return fmt.Errorf("%w: ascii response length %d below minimum %d", device.ErrProtocol, n, asciiMinSize)
	}
	if n%2 != 1 {
		return fmt.Errorf("%w: ascii response length %d is not odd", device.ErrProtocol, n)
	}
	if aduResponse[0] != asciiStart {
		return fmt.Errorf("%w: ascii response start %q is not %q", device.ErrProtocol, aduResponse[0], asciiStart)
	}
	if string(aduResponse[n-2:]) != asciiEnd {
		return fmt.Errorf("%w: ascii response does not end with CRLF", device.ErrProtocol)
	}
	if !bytes.EqualFold(aduResponse[1:3], aduRequest[1:3]) {
		return fmt.Errorf("%w: ascii slave id mismatch: got=%s want=%s", device.ErrProtocol, aduResponse[1:3], aduRequest[1:3])
	}
	return nil
}

func (p *asciiPackager) Decode(adu []byte) (*modbus.ProtocolDataUnit, error) {
	raw, err := asciiPayload(adu)
	if err != nil {
		return nil, err
	}
	if len(raw) < 3 {
		return nil, fmt.Errorf("%w: ascii payload too short (%d)", device.ErrProtocol, len(raw))
	}

	body, got := raw[:len(raw)-1], raw[len(raw)-1]
	if want := lrc(body); got != want {
		return nil, fmt.Errorf("%w: ascii lrc mismatch: got=%02X want=%02X", device.ErrProtocol, got, want)
	}

	return &modbus.ProtocolDataUnit{
		FunctionCode: body[1],
		Data:         body[2:],
	}, nil
}

// asciiPayload strips the delimiters and hex-decodes the frame body.
func asciiPayload(adu []byte) ([]byte, error) {
	n := len(adu)
	if n < asciiMinSize || adu[0] != asciiStart || string(adu[n-2:]) != asciiEnd {
		return nil, fmt.Errorf("%w: malformed ascii frame", device.ErrProtocol)
	}

	raw := make([]byte, hex.DecodedLen(n-3))
	if _, err := hex.Decode(raw, adu[1:n-2]); err != nil {
		return nil, fmt.Errorf("%w: ascii frame: %v", device.ErrProtocol, err)
	}
	return raw, nil
}

// asciiFrameLen sizes a response from its first asciiHeaderLen characters.
func asciiFrameLen(header []byte) (int, error) {
	if len(header) < asciiHeaderLen || header[0] != asciiStart {
		return 0, fmt.Errorf("%w: malformed ascii header %q", device.ErrProtocol, header)
	}

	var b [3]byte
	if _, err := hex.Decode(b[:], header[1:asciiHeaderLen]); err != nil {
		return 0, fmt.Errorf("%w: ascii header: %v", device.ErrProtocol, err)
	}

	fc, count := b[1], int(b[2])
	if fc&0x80 != 0 {
		// ':' + hex(id fc ex lrc) + CRLF
		return 1 + 2*4 + 2, nil
	}

	binLen, err := frameLenFor(fc, count, 3, 1)
	if err != nil {
		return 0, err
	}
	return 1 + 2*binLen + 2, nil
}

// lrc is the two's complement of the byte sum.
func lrc(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return -sum
}
