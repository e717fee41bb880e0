// =============================
// File: internal/dex/pumpfun/events.go
// =============================
package pumpfun

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// programDataPrefix - префикс строки лога, которой Anchor отдаёт события.
const programDataPrefix = "Program data: "

var ErrUnknownEvent = errors.New("unknown event discriminator")

// EventDiscriminator вычисляет 8-байтовый дискриминатор события Anchor.
func EventDiscriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("event:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

var (
	createEventDiscriminator    = EventDiscriminator("CreateEvent")
	tradeEventDiscriminator     = EventDiscriminator("TradeEvent")
	completeEventDiscriminator  = EventDiscriminator("CompleteEvent")
	setParamsEventDiscriminator = EventDiscriminator("SetParamsEvent")
)

// DecodeEventData декодирует событие по дискриминатору в начале data.
func DecodeEventData(data []byte) (EventType, interface{}, error) {
	if len(data) < 8 {
		return "", nil, fmt.Errorf("event data too short: %d bytes", len(data))
	}

	var disc [8]byte
	copy(disc[:], data[:8])
	dec := bin.NewBorshDecoder(data[8:])

	switch disc {
	case createEventDiscriminator:
		ev, err := decodeCreateEvent(dec)
		return EventCreate, ev, err
	case tradeEventDiscriminator:
		ev, err := decodeTradeEvent(dec)
		return EventTrade, ev, err
	case completeEventDiscriminator:
		ev, err := decodeCompleteEvent(dec)
		return EventComplete, ev, err
	case setParamsEventDiscriminator:
		ev, err := decodeSetParamsEvent(dec)
		return EventSetParams, ev, err
	default:
		return "", nil, ErrUnknownEvent
	}
}

// DecodeEvents extracts every known event from a transaction's log lines.
// Lines that are not program data or carry another program's event are skipped.
// A malformed known event does not stop decoding: the remaining events are
// returned together with the joined decode errors.
func DecodeEvents(logs []string) ([]Event, error) {
	var events []Event
	var errs []error
	for _, line := range logs {
		if !strings.HasPrefix(line, programDataPrefix) {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, programDataPrefix))
		if err != nil || len(data) < 8 {
			continue
		}

		eventType, payload, err := DecodeEventData(data)
		if errors.Is(err, ErrUnknownEvent) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to decode %s: %w", eventType, err))
			continue
		}
		events = append(events, Event{Type: eventType, Payload: payload})
	}
	return events, errors.Join(errs...)
}

func readString(dec *bin.Decoder) (string, error) {
	length, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return "", err
	}
	if int(length) > dec.Remaining() {
		return "", fmt.Errorf("string length %d exceeds remaining %d bytes", length, dec.Remaining())
	}
	raw, err := dec.ReadNBytes(int(length))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func readPublicKey(dec *bin.Decoder) (solana.PublicKey, error) {
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

// fieldReader накапливает первую ошибку, чтобы декодеры читались последовательно.
type fieldReader struct {
	dec *bin.Decoder
	err error
}

func (r *fieldReader) str() string {
	if r.err != nil {
		return ""
	}
	var s string
	s, r.err = readString(r.dec)
	return s
}

func (r *fieldReader) key() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	var k solana.PublicKey
	k, r.err = readPublicKey(r.dec)
	return k
}

func (r *fieldReader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	var v uint64
	v, r.err = r.dec.ReadUint64(bin.LE)
	return v
}

func (r *fieldReader) i64() int64 {
	if r.err != nil {
		return 0
	}
	var v int64
	v, r.err = r.dec.ReadInt64(bin.LE)
	return v
}

func (r *fieldReader) boolean() bool {
	if r.err != nil {
		return false
	}
	var v bool
	v, r.err = r.dec.ReadBool()
	return v
}

func decodeCreateEvent(dec *bin.Decoder) (CreateEvent, error) {
	r := &fieldReader{dec: dec}
	ev := CreateEvent{
		Name:         r.str(),
		Symbol:       r.str(),
		URI:          r.str(),
		Mint:         r.key(),
		BondingCurve: r.key(),
		User:         r.key(),
	}
	return ev, r.err
}

func decodeTradeEvent(dec *bin.Decoder) (TradeEvent, error) {
	r := &fieldReader{dec: dec}
	ev := TradeEvent{
		Mint:                 r.key(),
		SolAmount:            r.u64(),
		TokenAmount:          r.u64(),
		IsBuy:                r.boolean(),
		User:                 r.key(),
		Timestamp:            r.i64(),
		VirtualSolReserves:   r.u64(),
		VirtualTokenReserves: r.u64(),
	}
	// Старые версии программы не пишут реальные резервы.
	if r.err == nil && dec.Remaining() >= 16 {
		ev.RealSolReserves = r.u64()
		ev.RealTokenReserves = r.u64()
	}
	return ev, r.err
}

func decodeCompleteEvent(dec *bin.Decoder) (CompleteEvent, error) {
	r := &fieldReader{dec: dec}
	ev := CompleteEvent{
		User:         r.key(),
		Mint:         r.key(),
		BondingCurve: r.key(),
		Timestamp:    r.i64(),
	}
	return ev, r.err
}

func decodeSetParamsEvent(dec *bin.Decoder) (SetParamsEvent, error) {
	r := &fieldReader{dec: dec}
	ev := SetParamsEvent{
		FeeRecipient:                r.key(),
		InitialVirtualTokenReserves: r.u64(),
		InitialVirtualSolReserves:   r.u64(),
		InitialRealTokenReserves:    r.u64(),
		TokenTotalSupply:            r.u64(),
		FeeBasisPoints:              r.u64(),
	}
	return ev, r.err
}
