package canvassync

import (
	"fmt"

	"imagine/internal/wire"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the change set message and its nested messages.
const (
	fieldAdded   protowire.Number = 1
	fieldRemoved protowire.Number = 2
	fieldObjects protowire.Number = 3
	fieldReset   protowire.Number = 4

	fieldImageName   protowire.Number = 1
	fieldImageSource protowire.Number = 2
	fieldImageLeft   protowire.Number = 3
	fieldImageTop    protowire.Number = 4
	fieldImageAngle  protowire.Number = 5
	fieldImageScale  protowire.Number = 6

	fieldDeltaName   protowire.Number = 1
	fieldDeltaEvents protowire.Number = 2

	fieldEventAttribute protowire.Number = 1
	fieldEventValue     protowire.Number = 2
)

func Marshal(cs ChangeSet) []byte {
	var b []byte
	for _, info := range cs.Added {
		b = wire.AppendBytes(b, fieldAdded, marshalImage(info))
	}
	for _, name := range cs.Removed {
		b = protowire.AppendTag(b, fieldRemoved, protowire.BytesType)
		b = protowire.AppendString(b, name)
	}
	for _, d := range cs.Objects {
		b = wire.AppendBytes(b, fieldObjects, marshalDelta(d))
	}
	return wire.AppendBool(b, fieldReset, cs.Reset)
}

func marshalImage(info ImageInfo) []byte {
	var b []byte
	b = wire.AppendString(b, fieldImageName, info.Name)
	b = wire.AppendString(b, fieldImageSource, info.Source)
	b = wire.AppendDouble(b, fieldImageLeft, info.Left)
	b = wire.AppendDouble(b, fieldImageTop, info.Top)
	b = wire.AppendDouble(b, fieldImageAngle, info.Angle)
	return wire.AppendSint(b, fieldImageScale, info.Scale)
}

func marshalDelta(d ObjectDelta) []byte {
	b := wire.AppendString(nil, fieldDeltaName, d.Name)
	for _, e := range d.Events {
		var eb []byte
		eb = wire.AppendUint(eb, fieldEventAttribute, uint64(e.Attribute))
		eb = wire.AppendDouble(eb, fieldEventValue, e.Value)
		b = wire.AppendBytes(b, fieldDeltaEvents, eb)
	}
	return b
}

// Unmarshal decodes a change set. Unknown fields are skipped; unknown
// attributes are kept so the receiver can report them.
func Unmarshal(b []byte) (ChangeSet, error) {
	var cs ChangeSet
	err := wire.Range(b, func(f wire.Field) error {
		switch f.Num {
		case fieldAdded:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			info, err := unmarshalImage(f.Bytes)
			if err != nil {
				return err
			}
			cs.Added = append(cs.Added, info)
		case fieldRemoved:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			cs.Removed = append(cs.Removed, f.String())
		case fieldObjects:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			d, err := unmarshalDelta(f.Bytes)
			if err != nil {
				return err
			}
			cs.Objects = append(cs.Objects, d)
		case fieldReset:
			cs.Reset = f.Bool()
		}
		return nil
	})
	if err != nil {
		return ChangeSet{}, fmt.Errorf("%w: %w", ErrMalformedChangeSet, err)
	}
	return cs, nil
}

func unmarshalImage(b []byte) (ImageInfo, error) {
	var info ImageInfo
	err := wire.Range(b, func(f wire.Field) error {
		switch f.Num {
		case fieldImageName:
			info.Name = f.String()
		case fieldImageSource:
			info.Source = f.String()
		case fieldImageLeft:
			info.Left = f.Double()
		case fieldImageTop:
			info.Top = f.Double()
		case fieldImageAngle:
			info.Angle = f.Double()
		case fieldImageScale:
			info.Scale = f.Sint()
		}
		return nil
	})
	if err == nil && info.Name == "" {
		err = fmt.Errorf("image without name")
	}
	return info, err
}

func unmarshalDelta(b []byte) (ObjectDelta, error) {
	var d ObjectDelta
	err := wire.Range(b, func(f wire.Field) error {
		switch f.Num {
		case fieldDeltaName:
			d.Name = f.String()
		case fieldDeltaEvents:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			var e ObjectEvent
			err := wire.Range(f.Bytes, func(ef wire.Field) error {
				switch ef.Num {
				case fieldEventAttribute:
					e.Attribute = Attribute(ef.Varint)
				case fieldEventValue:
					e.Value = ef.Double()
				}
				return nil
			})
			if err != nil {
				return err
			}
			d.Events = append(d.Events, e)
		}
		return nil
	})
	return d, err
}
