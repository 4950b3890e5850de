package registermap

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
)

type DeviceType string

func (dt DeviceType) String() string {
	return string(dt)
}

const (
	Inverter DeviceType = "inverter"
	Battery  DeviceType = "battery"
	Wallbox  DeviceType = "wallbox"
)

var DeviceTypes = []DeviceType{Inverter, Battery, Wallbox}

func ParseDeviceType(s string) (DeviceType, error) {
	for _, dt := range DeviceTypes {
		if string(dt) == s {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown device type %q", s)
}

// Bank selects the Modbus register table a descriptor lives in.
type Bank int

const (
	Input Bank = iota
	Holding
)

func (b Bank) String() string {
	switch b {
	case Input:
		return "input"
	case Holding:
		return "holding"
	}
	return fmt.Sprintf("bank(%d)", int(b))
}

type DataType int

const (
	UInt16 DataType = iota
	SInt16
	UInt32
	SInt32
	FixedString
)

func (dt DataType) String() string {
	switch dt {
	case UInt16:
		return "uint16"
	case SInt16:
		return "sint16"
	case UInt32:
		return "uint32"
	case SInt32:
		return "sint32"
	case FixedString:
		return "string"
	}
	return fmt.Sprintf("datatype(%d)", int(dt))
}

// Width is the number of words one element of the type occupies. FixedString
// has no fixed width and returns 0.
func (dt DataType) Width() int {
	switch dt {
	case UInt16, SInt16:
		return 1
	case UInt32, SInt32:
		return 2
	}
	return 0
}

func (dt DataType) Signed() bool {
	return dt == SInt16 || dt == SInt32
}

// Descriptor says where one logical value lives and how to interpret its words.
type Descriptor struct {
	Key       string
	Name      string
	Bank      Bank
	Address   uint16
	WordCount uint16
	Type      DataType
	// Count > 1 marks a series of Count consecutive elements of Type.
	Count int
	Scale float64
	Enum  map[int64]string
	// Bits names the flags of a bitfield register, least significant bit
	// first. An empty label marks a reserved bit.
	Bits      []string
	Filter    []string
	Unit      model.NumericUnit
	Precision int
}

// ScaleOrOne returns Scale, treating the zero value as 1.
func (d Descriptor) ScaleOrOne() float64 {
	if d.Scale == 0 {
		return 1
	}
	return d.Scale
}

func (d Descriptor) IsSeries() bool {
	return d.Count > 1
}

// Validate checks that WordCount agrees with the data type.
func (d Descriptor) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("descriptor at %s %d has no key", d.Bank, d.Address)
	}
	if d.WordCount == 0 {
		return fmt.Errorf("descriptor %q: word count must be at least 1", d.Key)
	}
	if int(d.Address)+int(d.WordCount) > 1<<16 {
		return fmt.Errorf("descriptor %q: %d words at %d overflow the address space", d.Key, d.WordCount, d.Address)
	}
	if d.Type == FixedString {
		if d.IsSeries() {
			return fmt.Errorf("descriptor %q: string series are not supported", d.Key)
		}
		if d.Enum != nil || d.Bits != nil {
			return fmt.Errorf("descriptor %q: strings cannot carry an enum table or bit labels", d.Key)
		}
		return nil
	}
	count := max(d.Count, 1)
	if want := d.Type.Width() * count; int(d.WordCount) != want {
		return fmt.Errorf("descriptor %q: %s x%d needs %d words, declared %d", d.Key, d.Type, count, want, d.WordCount)
	}
	if d.IsSeries() && (d.Enum != nil || d.Bits != nil) {
		return fmt.Errorf("descriptor %q: series cannot carry an enum table or bit labels", d.Key)
	}
	if d.Enum != nil && d.Bits != nil {
		return fmt.Errorf("descriptor %q: enum table and bit labels are exclusive", d.Key)
	}
	if len(d.Bits) > d.Type.Width()*16 {
		return fmt.Errorf("descriptor %q: %d bit labels exceed %s", d.Key, len(d.Bits), d.Type)
	}
	return nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%q (%s %d x%d)", d.Key, d.Bank, d.Address, d.WordCount)
}

// Code returns the raw value whose enum label is label.
func (d Descriptor) Code(label string) (uint16, bool) {
	code, ok := lo.FindKey(d.Enum, label)
	if !ok || code < 0 || code > 0xFFFF {
		return 0, false
	}
	return uint16(code), true
}
