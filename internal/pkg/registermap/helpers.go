package registermap

import "github.com/anicoll/sungrow-modbus/internal/pkg/model"

func input(key, name string, address uint16, dt DataType) Descriptor {
	return Descriptor{
		Key:       key,
		Name:      name,
		Bank:      Input,
		Address:   address,
		WordCount: uint16(dt.Width()),
		Type:      dt,
		Scale:     1,
	}
}

func holding(key, name string, address uint16, dt DataType) Descriptor {
	d := input(key, name, address, dt)
	d.Bank = Holding
	return d
}

// text declares a FixedString of the given number of words.
func text(key, name string, address, words uint16) Descriptor {
	return Descriptor{
		Key:       key,
		Name:      name,
		Bank:      Input,
		Address:   address,
		WordCount: words,
		Type:      FixedString,
		Scale:     1,
	}
}

func (d Descriptor) measured(unit model.NumericUnit, scale float64, precision int) Descriptor {
	d.Unit = unit
	d.Scale = scale
	d.Precision = precision
	return d
}

func (d Descriptor) enum(table map[int64]string) Descriptor {
	d.Enum = table
	return d
}

func (d Descriptor) bits(labels ...string) Descriptor {
	d.Bits = labels
	return d
}

func (d Descriptor) only(patterns ...string) Descriptor {
	d.Filter = patterns
	return d
}

func (d Descriptor) series(count int) Descriptor {
	d.Count = count
	d.WordCount = uint16(d.Type.Width() * count)
	return d
}
