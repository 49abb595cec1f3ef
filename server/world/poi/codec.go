package poi

import (
	"fmt"
	"log/slog"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// sectionData is the NBT representation of a Section.
type sectionData struct {
	Valid   uint8        `nbt:"Valid"`
	Records []recordData `nbt:"Records"`
}

type recordData struct {
	X           int32  `nbt:"X"`
	Y           int32  `nbt:"Y"`
	Z           int32  `nbt:"Z"`
	Type        string `nbt:"Type"`
	FreeTickets int32  `nbt:"FreeTickets"`
}

// sectionCodec encodes sections as little endian NBT. It implements
// sectionstore.Codec.
type sectionCodec struct {
	log   *slog.Logger
	types *Types
}

// New returns a new, valid Section without records.
func (c sectionCodec) New(setDirty func()) *Section {
	return newSection(c.log, setDirty, true)
}

// Encode ...
func (c sectionCodec) Encode(s *Section) ([]byte, error) {
	data := sectionData{Records: make([]recordData, 0, len(s.order))}
	if s.valid {
		data.Valid = 1
	}
	for _, r := range s.order {
		data.Records = append(data.Records, recordData{
			X:           int32(r.pos[0]),
			Y:           int32(r.pos[1]),
			Z:           int32(r.pos[2]),
			Type:        r.typ.Name,
			FreeTickets: int32(r.freeTickets),
		})
	}
	b, err := nbt.MarshalEncoding(data, nbt.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encode poi section: %w", err)
	}
	return b, nil
}

// Decode reads a Section from NBT. Records of unknown types are dropped and
// the Section is marked invalid, so that it is rebuilt from the blocks of the
// world once its chunk is loaded.
func (c sectionCodec) Decode(b []byte, setDirty func()) (*Section, error) {
	var data sectionData
	if err := nbt.UnmarshalEncoding(b, &data, nbt.LittleEndian); err != nil {
		return nil, fmt.Errorf("decode poi section: %w", err)
	}
	s := newSection(c.log, setDirty, data.Valid == 1)
	for _, rd := range data.Records {
		pos := cube.Pos{int(rd.X), int(rd.Y), int(rd.Z)}
		typ, ok := c.types.ByName(rd.Type)
		if !ok {
			c.log.Error("Dropped POI record of unknown type.", "type", rd.Type, "pos", pos)
			s.valid = false
			continue
		}
		s.add(newRecord(pos, typ, int(rd.FreeTickets), setDirty))
	}
	return s, nil
}

// DecodeSection decodes a Section persisted by a Manager using the types
// passed. The Section returned is detached from any storage: changes made to
// it are never written.
func DecodeSection(log *slog.Logger, types *Types, b []byte) (*Section, error) {
	if log == nil {
		log = slog.Default()
	}
	return sectionCodec{log: log, types: types}.Decode(b, func() {})
}
