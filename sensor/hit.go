package sensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned by ParseMessage for text that is not five bracketed fields
var ErrMalformed = errors.New("malformed hit message")

// HitRecord is one verified hit
type HitRecord struct {
	ShooterTeam   uint8
	ShooterPlayer uint8
	VictimTeam    uint8
	VictimPlayer  uint8
	SensorID      uint8
	Timestamp     time.Time
}

// FriendlyFire reports whether shooter and victim share a team
func (h HitRecord) FriendlyFire() bool {
	return h.ShooterTeam == h.VictimTeam
}

// Message encodes the record as
// [shooterTeam,shooterPlayer,victimTeam,victimPlayer,sensorId]
func (h HitRecord) Message() string {
	return fmt.Sprintf("[%d,%d,%d,%d,%d]",
		h.ShooterTeam, h.ShooterPlayer, h.VictimTeam, h.VictimPlayer, h.SensorID)
}

func (h HitRecord) String() string {
	return fmt.Sprintf("%d:%d -> %d:%d (sensor %d)",
		h.ShooterTeam, h.ShooterPlayer, h.VictimTeam, h.VictimPlayer, h.SensorID)
}

// ParseMessage decodes a hit message; the timestamp is left zero
func ParseMessage(msg string) (HitRecord, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(msg), "[")
	if ok {
		body, ok = strings.CutSuffix(body, "]")
	}
	if !ok {
		return HitRecord{}, fmt.Errorf("%w: %q not bracketed", ErrMalformed, msg)
	}

	fields := strings.Split(body, ",")
	if len(fields) != 5 {
		return HitRecord{}, fmt.Errorf("%w: %d fields", ErrMalformed, len(fields))
	}
	var v [5]uint8
	for i, f := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return HitRecord{}, fmt.Errorf("%w: field %d %q", ErrMalformed, i, f)
		}
		v[i] = uint8(n)
	}
	return HitRecord{
		ShooterTeam:   v[0],
		ShooterPlayer: v[1],
		VictimTeam:    v[2],
		VictimPlayer:  v[3],
		SensorID:      v[4],
	}, nil
}
